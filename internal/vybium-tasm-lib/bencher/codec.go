package bencher

import (
	"encoding/json"

	"github.com/klauspost/compress/zstd"
)

// compressZstd compresses data using zstd.
func compressZstd(data []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	defer encoder.Close()
	return encoder.EncodeAll(data, nil), nil
}

// decompressZstd decompresses zstd-compressed data.
func decompressZstd(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()
	return decoder.DecodeAll(data, nil)
}

func encodeResults(results []BenchmarkResult, compress bool) ([]byte, error) {
	data, err := json.Marshal(results)
	if err != nil {
		return nil, err
	}
	if !compress {
		return data, nil
	}
	return compressZstd(data)
}

func decodeResults(data []byte, compressed bool) ([]BenchmarkResult, error) {
	if compressed {
		raw, err := decompressZstd(data)
		if err != nil {
			return nil, err
		}
		data = raw
	}
	var results []BenchmarkResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, err
	}
	return results, nil
}
