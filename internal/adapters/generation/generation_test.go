package generation

import (
	"os"
	"path/filepath"
	"testing"
)

type nopAudit struct{}

func (nopAudit) Info(string, string, string, any)    {}
func (nopAudit) Success(string, string, string, any) {}
func (nopAudit) Warning(string, string, string, any) {}
func (nopAudit) Error(string, string, string, any)   {}

type testFiles struct {
	dir string
}

func newTestFiles(t *testing.T) *testFiles {
	t.Helper()
	return &testFiles{dir: t.TempDir()}
}

func (f *testFiles) ImageExists(filename string) bool { return f.exists(filename) }
func (f *testFiles) ImagePath(filename string) string { return filepath.Join(f.dir, filename) }
func (f *testFiles) ImageURL(filename string) string  { return "http://media.test/api/images/" + filename }
func (f *testFiles) VideoExists(filename string) bool { return f.exists(filename) }
func (f *testFiles) VideoPath(filename string) string { return filepath.Join(f.dir, filename) }
func (f *testFiles) VideoURL(filename string) string  { return "http://media.test/api/videos/" + filename }

func (f *testFiles) WriteVideo(filename string, data []byte) error {
	return os.WriteFile(filepath.Join(f.dir, filename), data, 0o644)
}

func (f *testFiles) CopyVideo(src, dst string) error {
	data, err := os.ReadFile(filepath.Join(f.dir, src))
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(f.dir, dst), data, 0o644)
}

func (f *testFiles) exists(filename string) bool {
	_, err := os.Stat(filepath.Join(f.dir, filename))
	return err == nil
}
