package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/bookrec/core"
)

// FileSource 从本地文件读取快照，格式按扩展名决定（.json / .yaml / .yml）。
//
// 文件结构：
//
//	ratings:
//	  - {user_id: u1, book_id: b1, rating: 4}
//	catalog:
//	  - {id: b1, title: Dune, author: Frank Herbert, genres: [scifi]}
type FileSource struct {
	Path string
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Load(ctx context.Context) (*core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleSource, core.ErrorCodeUnavailable, err,
			"source: read %s", s.Path)
	}
	snap, err := DecodeSnapshot(filepath.Ext(s.Path), data)
	if err != nil {
		return nil, fmt.Errorf("source: %s: %w", s.Path, err)
	}
	return snap, nil
}

// DecodeSnapshot 按格式（".json" / ".yaml" / ".yml"，大小写不敏感）解码快照。
func DecodeSnapshot(ext string, data []byte) (*core.Snapshot, error) {
	var snap core.Snapshot
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, core.WrapDomainError(core.ModuleSource, core.ErrorCodeInvalidInput, err, "source: decode json")
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &snap); err != nil {
			return nil, core.WrapDomainError(core.ModuleSource, core.ErrorCodeInvalidInput, err, "source: decode yaml")
		}
	default:
		return nil, core.InvalidInputError(core.ModuleSource, "unsupported snapshot format %q", ext)
	}
	return &snap, nil
}
