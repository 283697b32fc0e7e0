package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/document"
)

// Store はローカルファイルシステム上のコンテンツアドレス型ブロブストアです。
// キーはサービス層で生成されたハッシュ由来の値のみを想定します。
type Store struct {
	dir string
}

// NewStore は保存ディレクトリを作成して Store を生成します。
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("local store: create dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Put はブロブを書き込みます。同一キーへの書き込みは上書きになりますが、
// コンテンツアドレスなので内容は同一です。
func (s *Store) Put(_ context.Context, key string, data []byte) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("local store: write %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("local store: rename %s: %w", key, err)
	}
	return nil
}

// Get はブロブを読み出します。
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, document.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("local store: read %s: %w", key, err)
	}
	return data, nil
}

// Delete はブロブを削除します。存在しないキーの削除は成功扱いです。
func (s *Store) Delete(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("local store: delete %s: %w", key, err)
	}
	return nil
}

// resolve はキーを保存ディレクトリ配下のパスへ解決します。ディレクトリ外への
// 脱出を防ぐためキーにパス区切りを許しません。
func (s *Store) resolve(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", fmt.Errorf("local store: invalid key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}
