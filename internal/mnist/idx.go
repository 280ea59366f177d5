package mnist

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	labelMagic = 0x00000801
	imageMagic = 0x00000803
)

// readLabels parses an idx1 label file, returning at most limit labels.
func readLabels(r io.Reader, limit int) ([]byte, error) {
	var header [2]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("could not read label header: %w", err)
	}
	if header[0] != labelMagic {
		return nil, fmt.Errorf("unexpected label magic %#x: %w", header[0], FormatErr)
	}
	n := int(header[1])
	if limit < n {
		n = limit
	}
	labels := make([]byte, n)
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, fmt.Errorf("could not read %d labels: %w", n, err)
	}
	return labels, nil
}

// readImages parses an idx3 image file, returning at most limit images and the image dimensions.
func readImages(r io.Reader, limit int) ([]byte, int, int, error) {
	var header [4]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, 0, 0, fmt.Errorf("could not read image header: %w", err)
	}
	if header[0] != imageMagic {
		return nil, 0, 0, fmt.Errorf("unexpected image magic %#x: %w", header[0], FormatErr)
	}
	n, rows, cols := int(header[1]), int(header[2]), int(header[3])
	if limit < n {
		n = limit
	}
	pixels := make([]byte, n*rows*cols)
	if _, err := io.ReadFull(r, pixels); err != nil {
		return nil, 0, 0, fmt.Errorf("could not read %d images: %w", n, err)
	}
	return pixels, rows, cols, nil
}

// gunzip wraps the reader if the content is gzip compressed.
func gunzip(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil {
		return nil, fmt.Errorf("could not peek header: %w", err)
	}
	if magic[0] == 0x1f && magic[1] == 0x8b {
		return gzip.NewReader(br)
	}
	return br, nil
}
