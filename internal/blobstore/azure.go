package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/SummittDweller/cb-file-finder/internal/routing"
)

var ErrMissingConnectionString = errors.New("azure storage connection string is empty")

// AzureStore writes to Azure Blob Storage, one container per routing container
type AzureStore struct {
	client *azblob.Client
}

func NewAzureStore(connectionString string) (*AzureStore, error) {
	if connectionString == "" {
		return nil, ErrMissingConnectionString
	}

	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}

	return &AzureStore{client: client}, nil
}

func (a *AzureStore) Exists(ctx context.Context, container routing.Container, key string) (bool, error) {
	blob := a.client.ServiceClient().NewContainerClient(string(container)).NewBlobClient(key)
	_, err := blob.GetProperties(ctx, nil)
	if err == nil {
		return true, nil
	}
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to get blob properties: %w", err)
}

func (a *AzureStore) Put(ctx context.Context, container routing.Container, key string, body io.Reader) error {
	if _, err := a.client.UploadStream(ctx, string(container), key, body, nil); err != nil {
		return fmt.Errorf("failed to upload blob: %w", err)
	}
	return nil
}
