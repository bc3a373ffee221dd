package metadata

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-version"
)

const DefaultIndexAddress string = "https://api.nuget.org/v3/index.json"
const nugetName string = "microsoft.windows.sdk.win32metadata"

// Fetches the newest Win32 metadata package from a NuGet feed.
type Downloader struct {
	IndexAddress string
	Client       *http.Client
}

func NewDownloader() *Downloader {
	return &Downloader{IndexAddress: DefaultIndexAddress, Client: http.DefaultClient}
}

// Downloads the newest Windows.Win32.winmd and writes it to metadataFileName.
// It returns the version that was written.
func (d *Downloader) DownloadMetadata(ctx context.Context, metadataFileName string) (string, error) {
	baseAddress, err := d.getBaseAddress(ctx)
	if err != nil {
		return "", err
	}

	versionsResponse, err := d.queryGet(ctx, fmt.Sprintf("%s%s/index.json", baseAddress, nugetName))
	if err != nil {
		return "", fmt.Errorf("could not list metadata versions: %w", err)
	}
	versions, err := parse[map[string][]string](versionsResponse)
	if err != nil {
		return "", fmt.Errorf("could not parse metadata versions: %w", err)
	}
	if len(versions["versions"]) == 0 {
		return "", fmt.Errorf("no metadata versions are published")
	}

	orderedVersions := make([]*version.Version, len(versions["versions"]))
	for i, versionString := range versions["versions"] {
		parsed, err := version.NewVersion(versionString)
		if err != nil {
			return "", fmt.Errorf("error parsing version '%s': %w", versionString, err)
		}

		orderedVersions[i] = parsed
	}

	sort.Sort(version.Collection(orderedVersions))
	newest := orderedVersions[len(orderedVersions)-1].Original()
	nugetBytes, err := d.queryGet(ctx, fmt.Sprintf("%s%s/%s/%s.%s.nupkg", baseAddress, nugetName, newest, nugetName, newest))
	if err != nil {
		return "", fmt.Errorf("could not download metadata %s: %w", newest, err)
	}

	bytesReader := bytes.NewReader(nugetBytes)
	nuget, err := zip.NewReader(bytesReader, int64(bytesReader.Len()))
	if err != nil {
		return "", fmt.Errorf("metadata package %s is not a valid archive: %w", newest, err)
	}
	for _, file := range nuget.File {
		if filepath.Ext(file.Name) != ".winmd" {
			continue
		}

		reader, err := file.Open()
		if err != nil {
			return "", err
		}
		metadataBytes, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(metadataFileName, metadataBytes, 0644); err != nil {
			return "", err
		}
		return newest, nil
	}

	return "", fmt.Errorf("metadata package %s contains no .winmd file", newest)
}

func (d *Downloader) getBaseAddress(ctx context.Context) (string, error) {
	response, err := d.queryGet(ctx, d.IndexAddress)
	if err != nil {
		return "", fmt.Errorf("could not read package index: %w", err)
	}
	index, err := parse[nugetIndex](response)
	if err != nil {
		return "", fmt.Errorf("could not parse package index: %w", err)
	}

	for _, resource := range index.Resources {
		if strings.Contains(resource.Type, "PackageBaseAddress") {
			return resource.Id, nil
		}
	}

	return "", fmt.Errorf("package index lists no PackageBaseAddress resource")
}

func parse[T interface{}](source []byte) (T, error) {
	var parsedBody T
	err := json.Unmarshal(source, &parsedBody)
	return parsedBody, err
}

func (d *Downloader) queryGet(ctx context.Context, url string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	response, err := d.Client.Do(request)
	if err != nil {
		return nil, err
	}

	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, response.Status)
	}

	return io.ReadAll(response.Body)
}

type nugetIndex struct {
	Resources []nugetResource `json:"resources"`
}

type nugetResource struct {
	Id   string `json:"@id"`
	Type string `json:"@type"`
}
