package routing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SummittDweller/cb-file-finder/internal/policy"
)

// DefaultBaseURL is the storage account every container URL hangs off
const DefaultBaseURL = "https://dgobjects.blob.core.windows.net/"

// Container is a logical storage bucket
type Container string

const (
	ContainerObjects     Container = "objs"
	ContainerThumbs      Container = "thumbs"
	ContainerSmalls      Container = "smalls"
	ContainerTranscripts Container = "transcripts"
)

var ErrUnroutable = errors.New("no container for match")

// Route is an accepted match with its storage location
type Route struct {
	Mode      policy.Mode
	Container Container
	Key       string
	URL       string
	Score     int
}

// Router builds storage URLs below a base URL
type Router struct {
	baseURL string
}

// NewRouter returns a router for baseURL, falling back to DefaultBaseURL
func NewRouter(baseURL string) *Router {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Router{baseURL: baseURL}
}

// BaseURL returns the normalized base URL
func (r *Router) BaseURL() string {
	return r.baseURL
}

// URL returns the storage URL of key in container. Keys are used verbatim.
func (r *Router) URL(c Container, key string) string {
	return r.baseURL + string(c) + "/" + key
}

// Route accepts candidate for target under mode and derives its storage location.
// Errors wrap policy.ErrInsufficientScore, policy.ErrModeMismatch or ErrUnroutable.
func (r *Router) Route(target, candidate string, rawScore int, mode policy.Mode) (Route, error) {
	final, err := policy.Accept(target, rawScore, candidate, mode)
	if err != nil {
		return Route{Mode: mode, Key: candidate, Score: final}, err
	}

	c, err := ContainerFor(candidate, mode)
	if err != nil {
		return Route{Mode: mode, Key: candidate, Score: final}, err
	}

	return Route{
		Mode:      mode,
		Container: c,
		Key:       candidate,
		URL:       r.URL(c, candidate),
		Score:     final,
	}, nil
}

// ContainerFor picks the container for a candidate name under mode
func ContainerFor(candidate string, mode policy.Mode) (Container, error) {
	switch {
	case mode == policy.ModeTranscript:
		return ContainerTranscripts, nil
	case strings.Contains(candidate, "_TN.") || mode == policy.ModeThumbnail:
		return ContainerThumbs, nil
	case strings.Contains(candidate, "_JPG.") || mode == policy.ModeSmall:
		return ContainerSmalls, nil
	case strings.Contains(candidate, "_OBJ.") || mode == policy.ModeObject:
		return ContainerObjects, nil
	default:
		return "", fmt.Errorf("%w: '%s' with mode '%s'", ErrUnroutable, candidate, mode)
	}
}
