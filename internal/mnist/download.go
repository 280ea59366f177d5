package mnist

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is a public mirror of the original corpus files.
	DefaultBaseURL = "https://ossci-datasets.s3.amazonaws.com/mnist/"
	// DefaultDir is where the corpus files are kept once downloaded.
	DefaultDir = "data"

	trainImagesFile = "train-images-idx3-ubyte.gz"
	trainLabelsFile = "train-labels-idx1-ubyte.gz"
	testImagesFile  = "t10k-images-idx3-ubyte.gz"
	testLabelsFile  = "t10k-labels-idx1-ubyte.gz"
)

// Downloader fetches the gzipped idx files into a local directory and extracts the requested samples.
// Files already present in the directory are not downloaded again.
type Downloader struct {
	baseURL string
	dir     string
	client  *http.Client
}

// NewDownloader creates a new downloader for the given mirror and directory.
func NewDownloader(baseURL, dir string) *Downloader {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if dir == "" {
		dir = DefaultDir
	}
	return &Downloader{
		baseURL: baseURL,
		dir:     dir,
		client:  http.DefaultClient,
	}
}

// WithClient sets the http client for the downloads.
func (d *Downloader) WithClient(client *http.Client) *Downloader {
	d.client = client
	return d
}

func (d *Downloader) Fetch(ctx context.Context, req Request) (*Buffers, error) {
	if req.Train < 0 || req.Test < 0 {
		return nil, fmt.Errorf("invalid request %+v", req)
	}
	buffers := new(Buffers)
	var err error
	buffers.TrainImages, buffers.Rows, buffers.Cols, err = d.images(ctx, trainImagesFile, req.Train)
	if err != nil {
		return nil, err
	}
	buffers.TrainLabels, err = d.labels(ctx, trainLabelsFile, req.Train)
	if err != nil {
		return nil, err
	}
	if req.Test > 0 {
		buffers.TestImages, _, _, err = d.images(ctx, testImagesFile, req.Test)
		if err != nil {
			return nil, err
		}
		buffers.TestLabels, err = d.labels(ctx, testLabelsFile, req.Test)
		if err != nil {
			return nil, err
		}
	}
	if req.OneHot {
		buffers.TrainLabels = oneHot(buffers.TrainLabels)
		buffers.TestLabels = oneHot(buffers.TestLabels)
	}
	log.Debug().
		Int("train", len(buffers.TrainLabels)).
		Int("test", len(buffers.TestLabels)).
		Str("dir", d.dir).
		Msg("extracted corpus")
	return buffers, nil
}

func (d *Downloader) images(ctx context.Context, name string, limit int) ([]byte, int, int, error) {
	f, err := d.open(ctx, name)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()
	r, err := gunzip(f)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("could not open '%s': %w", name, err)
	}
	return readImages(r, limit)
}

func (d *Downloader) labels(ctx context.Context, name string, limit int) ([]byte, error) {
	f, err := d.open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := gunzip(f)
	if err != nil {
		return nil, fmt.Errorf("could not open '%s': %w", name, err)
	}
	return readLabels(r, limit)
}

// open returns the local copy of the file, downloading it first if needed.
func (d *Downloader) open(ctx context.Context, name string) (*os.File, error) {
	p := filepath.Join(d.dir, name)
	if _, err := os.Stat(p); err != nil {
		if err := d.download(ctx, name, p); err != nil {
			return nil, err
		}
	}
	return os.Open(p)
}

func (d *Downloader) download(ctx context.Context, name, p string) error {
	url := d.baseURL + name
	log.Info().Str("url", url).Msg("downloading")

	if err := os.MkdirAll(d.dir, os.ModePerm); err != nil {
		return fmt.Errorf("could not make dir: %s: %w", d.dir, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("could not create request for '%s': %w", url, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("could not get '%s': %s: %w", url, err.Error(), DownloadErr)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("could not get '%s': status %d: %w", url, resp.StatusCode, DownloadErr)
	}

	// an interrupted download only leaves the .part file behind
	tmp := p + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("could not create file '%s': %w", tmp, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("could not write '%s': %s: %w", tmp, err.Error(), DownloadErr)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close file '%s': %w", tmp, err)
	}
	return os.Rename(tmp, p)
}
