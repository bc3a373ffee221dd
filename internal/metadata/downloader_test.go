package metadata

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nugetPackage(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buffer bytes.Buffer
	archive := zip.NewWriter(&buffer)
	for name, content := range files {
		writer, err := archive.Create(name)
		require.NoError(t, err)
		_, err = writer.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, archive.Close())
	return buffer.Bytes()
}

func nugetFeed(t *testing.T, versions []string, packages map[string][]byte) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/index.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"resources":[{"@id":"%s/search","@type":"SearchQueryService"},{"@id":"%s/flat/","@type":"PackageBaseAddress/3.0.0"}]}`, server.URL, server.URL)
	})
	mux.HandleFunc("/flat/"+nugetName+"/index.json", func(w http.ResponseWriter, r *http.Request) {
		quoted := make([]string, len(versions))
		for i, v := range versions {
			quoted[i] = fmt.Sprintf("%q", v)
		}
		fmt.Fprintf(w, `{"versions":[%s]}`, joinComma(quoted))
	})
	for v, content := range packages {
		content := content
		mux.HandleFunc(fmt.Sprintf("/flat/%s/%s/%s.%s.nupkg", nugetName, v, nugetName, v), func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(content)
		})
	}

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func joinComma(items []string) string {
	var buffer bytes.Buffer
	for i, item := range items {
		if i > 0 {
			buffer.WriteString(",")
		}
		buffer.WriteString(item)
	}
	return buffer.String()
}

func TestDownloadMetadataPicksNewestVersion(t *testing.T) {
	server := nugetFeed(t,
		[]string{"2.0.0", "10.0.1-preview", "10.0.1", "9.5.3"},
		map[string][]byte{
			"10.0.1": nugetPackage(t, map[string]string{
				"README.md":                   "readme",
				"Windows.Win32.winmd":         "newest metadata",
				"lib/netstandard2.0/Some.dll": "dll",
			}),
			"9.5.3": nugetPackage(t, map[string]string{"Windows.Win32.winmd": "old metadata"}),
		})

	downloader := &Downloader{IndexAddress: server.URL + "/index.json", Client: server.Client()}
	target := filepath.Join(t.TempDir(), "Windows.Win32.winmd")

	version, err := downloader.DownloadMetadata(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, "10.0.1", version)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "newest metadata", string(content))
}

func TestDownloadMetadataReportsMissingPackage(t *testing.T) {
	server := nugetFeed(t, []string{"1.0.0"}, nil)
	downloader := &Downloader{IndexAddress: server.URL + "/index.json", Client: server.Client()}

	_, err := downloader.DownloadMetadata(context.Background(), filepath.Join(t.TempDir(), "out.winmd"))
	assert.ErrorContains(t, err, "unexpected status 404")
}

func TestDownloadMetadataRequiresWinmdFile(t *testing.T) {
	server := nugetFeed(t, []string{"1.0.0"}, map[string][]byte{
		"1.0.0": nugetPackage(t, map[string]string{"README.md": "no metadata here"}),
	})
	downloader := &Downloader{IndexAddress: server.URL + "/index.json", Client: server.Client()}

	_, err := downloader.DownloadMetadata(context.Background(), filepath.Join(t.TempDir(), "out.winmd"))
	assert.ErrorContains(t, err, "contains no .winmd file")
}
