package filemgr

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	root := t.TempDir()
	m, err := NewManager(root, 30, 80)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m, m.Root()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestNewManagerCreatesStandardDirs(t *testing.T) {
	_, root := newTestManager(t)
	for _, dir := range standardDirs {
		if st, err := os.Stat(filepath.Join(root, dir)); err != nil || !st.IsDir() {
			t.Errorf("expected %s to exist, err=%v", dir, err)
		}
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	m, root := newTestManager(t)
	outside := filepath.Join(filepath.Dir(root), "outside-"+filepath.Base(root)+".txt")
	writeFile(t, outside, "keep me")
	t.Cleanup(func() { _ = os.Remove(outside) })

	tests := []struct {
		name string
		path string
		want error
	}{
		{name: "空路径", path: "  ", want: ErrEmptyPath},
		{name: "相对上级", path: "../" + filepath.Base(outside), want: ErrOutsideRoot},
		{name: "嵌套上级", path: "models/../../" + filepath.Base(outside), want: ErrOutsideRoot},
		{name: "绝对路径", path: outside, want: ErrOutsideRoot},
		{name: "系统文件", path: "/etc/passwd", want: ErrOutsideRoot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Resolve(tt.path); !errors.Is(err, tt.want) {
				t.Errorf("Resolve(%q) = %v, want %v", tt.path, err, tt.want)
			}
			if err := m.Delete(tt.path); !errors.Is(err, tt.want) {
				t.Errorf("Delete(%q) = %v, want %v", tt.path, err, tt.want)
			}
		})
	}

	if data, err := os.ReadFile(outside); err != nil || string(data) != "keep me" {
		t.Fatalf("outside file must be untouched, got %q, %v", data, err)
	}
}

func TestResolveRejectsSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}
	m, root := newTestManager(t)
	target := filepath.Join(t.TempDir(), "secret.txt")
	writeFile(t, target, "secret")
	link := filepath.Join(root, "models", "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	if err := m.Delete("models/link.txt"); !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("expected ErrOutsideRoot, got %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("symlink target must survive: %v", err)
	}
}

func TestDeleteSymlinkRemovesLinkOnly(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}
	m, root := newTestManager(t)
	target := filepath.Join(root, "textures", "lion.png")
	writeFile(t, target, "png")
	link := filepath.Join(root, "models", "lion-link.png")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	if err := m.Delete("models/lion-link.png"); err != nil {
		t.Fatalf("delete link: %v", err)
	}
	if _, err := os.Lstat(link); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected link to be removed, got %v", err)
	}
	if data, err := os.ReadFile(target); err != nil || string(data) != "png" {
		t.Errorf("link target must survive, got %q, %v", data, err)
	}
}

func TestListFilesHugePageIsEmpty(t *testing.T) {
	m, root := newTestManager(t)
	writeFile(t, filepath.Join(root, "models", "lion.obj"), "obj")

	tests := []struct {
		name     string
		page     int
		pageSize int
	}{
		{name: "最大页码", page: math.MaxInt, pageSize: 20},
		{name: "最大页码最大页长", page: math.MaxInt, pageSize: math.MaxInt},
		{name: "刚好越界", page: 2, pageSize: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.ListFiles(context.Background(), FileListQuery{Page: tt.page, PageSize: tt.pageSize})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got.Files) != 0 || got.Total != 1 {
				t.Errorf("expected empty page with total 1, got %d files total %d", len(got.Files), got.Total)
			}
		})
	}
}

func TestListFilesAndStats(t *testing.T) {
	m, root := newTestManager(t)
	writeFile(t, filepath.Join(root, "models", "lion.obj"), "obj-data")
	writeFile(t, filepath.Join(root, "models", "Tiger.FBX"), "fbx")
	writeFile(t, filepath.Join(root, "textures", "lion.png"), "png")
	writeFile(t, filepath.Join(root, "documents", "readme.txt"), "doc")
	writeFile(t, filepath.Join(root, "temp", "upload.tmp"), "tmp")
	ctx := context.Background()

	all, err := m.ListFiles(ctx, FileListQuery{Type: "all"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if all.Total != 5 || len(all.Files) != 5 {
		t.Fatalf("expected 5 files, got total=%d len=%d", all.Total, len(all.Files))
	}
	if all.PageSize != defaultPageSize || all.Page != 1 {
		t.Errorf("unexpected paging %d/%d", all.Page, all.PageSize)
	}

	tests := []struct {
		name  string
		query FileListQuery
		want  int
	}{
		{name: "搜索不区分大小写", query: FileListQuery{Search: "LION"}, want: 2},
		{name: "模型类型", query: FileListQuery{Type: "model"}, want: 2},
		{name: "图片类型", query: FileListQuery{Type: "image"}, want: 1},
		{name: "其他类型", query: FileListQuery{Type: "other"}, want: 1},
		{name: "分页第二页", query: FileListQuery{Page: 2, PageSize: 3}, want: 2},
		{name: "超出页数", query: FileListQuery{Page: 9, PageSize: 3}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.ListFiles(ctx, tt.query)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got.Files) != tt.want {
				t.Errorf("expected %d files, got %d", tt.want, len(got.Files))
			}
		})
	}

	stats, err := m.FileTypeStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := map[FileType]int{FileTypeModel: 2, FileTypeImage: 1, FileTypeDocument: 1, FileTypeOther: 1}
	if len(stats) != 4 {
		t.Fatalf("expected 4 stat rows, got %d", len(stats))
	}
	for _, s := range stats {
		if s.Count != want[s.Type] {
			t.Errorf("type %s: expected %d, got %d", s.Type, want[s.Type], s.Count)
		}
		if s.Name == "" {
			t.Errorf("type %s missing display name", s.Type)
		}
	}
}

func TestDeleteAndBatchDelete(t *testing.T) {
	m, root := newTestManager(t)
	writeFile(t, filepath.Join(root, "models", "a.obj"), "a")
	writeFile(t, filepath.Join(root, "models", "b.obj"), "b")

	if err := m.Delete("models/a.obj"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := m.Delete("models/a.obj"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := m.Delete("models"); !errors.Is(err, ErrNotRegularFile) {
		t.Errorf("expected ErrNotRegularFile, got %v", err)
	}

	result := m.BatchDelete([]string{"models/b.obj", "../escape.txt", "missing.obj"})
	if result.TotalDeleted != 1 || result.TotalFailed != 2 {
		t.Fatalf("unexpected batch result %+v", result)
	}
	if result.DeletedFiles[0] != "models/b.obj" {
		t.Errorf("unexpected deleted list %v", result.DeletedFiles)
	}
	if result.FailedFiles[0].Error != "无权访问该文件" {
		t.Errorf("unexpected failure message %q", result.FailedFiles[0].Error)
	}
}

func TestOpen(t *testing.T) {
	m, root := newTestManager(t)
	writeFile(t, filepath.Join(root, "models", "a.obj"), "a")

	abs, name, err := m.Open("models/a.obj")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if name != "a.obj" || filepath.Base(abs) != "a.obj" {
		t.Errorf("unexpected open result %q %q", abs, name)
	}
	if _, _, err := m.Open("models/none.obj"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := m.Open("../../etc/passwd"); !errors.Is(err, ErrOutsideRoot) {
		t.Errorf("expected ErrOutsideRoot, got %v", err)
	}
}

func TestCleanupScanAndExecute(t *testing.T) {
	m, root := newTestManager(t)
	ctx := context.Background()

	writeFile(t, filepath.Join(root, "temp", "t1.tmp"), "12345")
	writeFile(t, filepath.Join(root, "models", "a.obj"), "same-content")
	writeFile(t, filepath.Join(root, "models", "copy", "a.obj"), "same-content")
	writeFile(t, filepath.Join(root, "models", "diff.obj"), "other-conten")
	oldFile := filepath.Join(root, "documents", "old.pdf")
	writeFile(t, oldFile, "old")
	past := time.Now().AddDate(0, 0, -45)
	if err := os.Chtimes(oldFile, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "models", "empty"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	stats, err := m.ScanCleanup(ctx)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if stats.TempFiles != 1 || stats.TempFilesSize != 5 {
		t.Errorf("temp stats %+v", stats)
	}
	if stats.DuplicateFiles != 1 || stats.DuplicateFilesSize != int64(len("same-content")) {
		t.Errorf("duplicate stats %+v", stats)
	}
	if stats.OldFiles != 1 || stats.OldFilesSize != 3 {
		t.Errorf("old stats %+v", stats)
	}
	// textures 为空但属于标准目录，不计入
	if stats.EmptyFolders != 1 {
		t.Errorf("expected 1 empty folder, got %d", stats.EmptyFolders)
	}

	result, err := m.ExecuteCleanup(ctx, CleanupOptions{DuplicateFiles: true, OldFiles: true})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.DuplicateFilesDeleted != 1 || result.OldFilesDeleted != 1 || result.TempFilesDeleted != 0 {
		t.Errorf("unexpected result %+v", result)
	}
	if _, err := os.Stat(filepath.Join(root, "models", "a.obj")); err != nil {
		t.Errorf("first copy of duplicate should be kept: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "models", "copy", "a.obj")); !os.IsNotExist(err) {
		t.Errorf("second copy should be removed, err=%v", err)
	}

	quick, err := m.QuickCleanup(ctx)
	if err != nil {
		t.Fatalf("quick: %v", err)
	}
	if quick.TempFilesDeleted != 1 || quick.TempFilesSize != 5 {
		t.Errorf("unexpected quick result %+v", quick)
	}
	// models/copy 在删除重复文件后变为空目录
	if quick.EmptyFoldersDeleted != 2 {
		t.Errorf("expected 2 empty folders removed, got %d", quick.EmptyFoldersDeleted)
	}
	for _, dir := range standardDirs {
		if _, err := os.Stat(filepath.Join(root, dir)); err != nil {
			t.Errorf("standard dir %s must survive cleanup: %v", dir, err)
		}
	}
}

func TestUpdateSettings(t *testing.T) {
	m, _ := newTestManager(t)

	if _, err := m.UpdateSettings(Settings{FileRetentionDays: 0, StorageWarningThreshold: 50}); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("expected ErrInvalidSettings, got %v", err)
	}
	if _, err := m.UpdateSettings(Settings{FileRetentionDays: 7, StorageWarningThreshold: 101}); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("expected ErrInvalidSettings, got %v", err)
	}

	updated, err := m.UpdateSettings(Settings{StoragePath: "/tmp/elsewhere", FileRetentionDays: 7, StorageWarningThreshold: 90, AutoCleanup: true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.StoragePath != m.Root() {
		t.Errorf("storage path must not change, got %q", updated.StoragePath)
	}
	if updated.FileRetentionDays != 7 || updated.StorageWarningThreshold != 90 || !updated.AutoCleanup {
		t.Errorf("settings not applied: %+v", updated)
	}
	if updated.CleanupInterval != "weekly" {
		t.Errorf("expected interval kept, got %q", updated.CleanupInterval)
	}
}

func TestClassifyFile(t *testing.T) {
	tests := map[string]FileType{
		"a.OBJ":   FileTypeModel,
		"b.stl":   FileTypeModel,
		"c.jpeg":  FileTypeImage,
		"d.docx":  FileTypeDocument,
		"e.zip":   FileTypeOther,
		"noext":   FileTypeOther,
	}
	for name, want := range tests {
		if got := ClassifyFile(name); got != want {
			t.Errorf("ClassifyFile(%q) = %s, want %s", name, got, want)
		}
	}
}
