package filemgr

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DirModels    = "models"
	DirTextures  = "textures"
	DirDocuments = "documents"
	DirTemp      = "temp"

	defaultPageSize      = 20
	maxPageSize          = 100
	defaultRetentionDays = 30
	defaultWarnThreshold = 80
	cleanupInterval      = "weekly"
)

var standardDirs = []string{DirModels, DirTextures, DirDocuments, DirTemp}

var (
	// ErrOutsideRoot 路径解析后不在存储根目录内
	ErrOutsideRoot = errors.New("path is outside the storage root")
	// ErrEmptyPath 未提供文件路径
	ErrEmptyPath = errors.New("file path is empty")
	// ErrNotFound 文件不存在
	ErrNotFound = errors.New("file not found")
	// ErrNotRegularFile 目标不是普通文件
	ErrNotRegularFile = errors.New("not a regular file")
	// ErrInvalidSettings 设置值超出范围
	ErrInvalidSettings = errors.New("invalid storage settings")
)

// Manager 管理本地存储根目录：浏览、删除、下载和清理。
// 所有外部传入的路径都必须解析到根目录之内。
type Manager struct {
	root     string
	realRoot string

	mu       sync.RWMutex
	settings Settings
	now      func() time.Time
}

// NewManager 创建管理器并确保根目录和标准子目录存在。
func NewManager(root string, retentionDays, warnThreshold int) (*Manager, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		root = "storage"
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, "resolve storage root")
	}
	for _, dir := range append([]string{""}, standardDirs...) {
		if err := os.MkdirAll(filepath.Join(abs, dir), 0o755); err != nil {
			return nil, errors.Wrapf(err, "create storage dir %q", dir)
		}
	}
	resolvedRoot, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, errors.Wrap(err, "resolve storage root symlinks")
	}

	if retentionDays <= 0 {
		retentionDays = defaultRetentionDays
	}
	if warnThreshold <= 0 || warnThreshold > 100 {
		warnThreshold = defaultWarnThreshold
	}

	return &Manager{
		root:     abs,
		realRoot: resolvedRoot,
		settings: Settings{
			StoragePath:             abs,
			CleanupInterval:         cleanupInterval,
			FileRetentionDays:       retentionDays,
			StorageWarningThreshold: warnThreshold,
		},
		now: time.Now,
	}, nil
}

// Root 返回根目录的绝对路径
func (m *Manager) Root() string {
	return m.root
}

// Resolve 把相对根目录（或绝对）的路径解析成根目录内的绝对路径。
// 已存在的路径会展开符号链接后再次校验。
func (m *Manager) Resolve(p string) (string, error) {
	candidate, err := m.candidate(p)
	if err != nil {
		return "", err
	}

	resolved, err := filepath.EvalSymlinks(candidate)
	switch {
	case err == nil:
		if !within(m.realRoot, resolved) {
			return "", ErrOutsideRoot
		}
		return resolved, nil
	case errors.Is(err, fs.ErrNotExist):
		return candidate, nil
	default:
		return "", errors.Wrap(err, "resolve path")
	}
}

// candidate 只做词法清理和根目录校验，不展开符号链接
func (m *Manager) candidate(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", ErrEmptyPath
	}
	candidate := filepath.FromSlash(p)
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(m.root, candidate)
	}
	candidate = filepath.Clean(candidate)
	if !within(m.root, candidate) && !within(m.realRoot, candidate) {
		return "", ErrOutsideRoot
	}
	return candidate, nil
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// relative 返回相对根目录的斜杠路径
func (m *Manager) relative(abs string) string {
	base := m.root
	if within(m.realRoot, abs) {
		base = m.realRoot
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// Info 返回磁盘空间和根目录下的文件总数
func (m *Manager) Info(ctx context.Context) (StorageInfo, error) {
	usage, err := diskUsage(m.root)
	if err != nil {
		return StorageInfo{}, errors.Wrap(err, "read disk usage")
	}
	files, err := m.walkFiles(ctx)
	if err != nil {
		return StorageInfo{}, err
	}

	info := StorageInfo{
		TotalSpace:     usage.Total,
		FreeSpace:      usage.Available,
		AvailableSpace: usage.Available,
		TotalFiles:     len(files),
	}
	if usage.Total >= usage.Free {
		info.UsedSpace = usage.Total - usage.Free
	}
	if usage.Total > 0 {
		info.UsagePercentage = int(math.Round(float64(info.UsedSpace) / float64(usage.Total) * 100))
	}
	info.Warning = info.UsagePercentage >= m.Settings().StorageWarningThreshold
	return info, nil
}

// ListFiles 返回按名称搜索、按类别过滤后的分页文件列表
func (m *Manager) ListFiles(ctx context.Context, q FileListQuery) (FileList, error) {
	files, err := m.walkFiles(ctx)
	if err != nil {
		return FileList{}, err
	}

	search := strings.ToLower(strings.TrimSpace(q.Search))
	typeFilter := strings.TrimSpace(q.Type)
	filtered := make([]FileInfo, 0, len(files))
	for _, f := range files {
		if search != "" && !strings.Contains(strings.ToLower(f.Name), search) {
			continue
		}
		if typeFilter != "" && typeFilter != fileTypeAll && string(f.Type) != typeFilter {
			continue
		}
		filtered = append(filtered, f)
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	// 先按页数比较，避免超大页码相乘溢出
	start := len(filtered)
	if pages := (len(filtered) + pageSize - 1) / pageSize; page-1 < pages {
		start = (page - 1) * pageSize
	}
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}

	return FileList{
		Files:    filtered[start:end],
		Total:    len(filtered),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Delete 删除根目录内的单个文件。路径本身是符号链接时只删除链接，
// 链接目标仍须位于根目录内。
func (m *Manager) Delete(p string) error {
	abs, err := m.Resolve(p)
	if err != nil {
		return err
	}
	if link, ok, err := m.symlinkLeaf(p); err != nil {
		return err
	} else if ok {
		if err := os.Remove(link); err != nil {
			return errors.Wrap(err, "remove link")
		}
		logrus.WithField("path", m.relative(link)).Info("storage link deleted")
		return nil
	}
	stat, err := os.Lstat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return errors.Wrap(err, "stat file")
	}
	if !stat.Mode().IsRegular() {
		return ErrNotRegularFile
	}
	if err := os.Remove(abs); err != nil {
		return errors.Wrap(err, "remove file")
	}
	logrus.WithField("path", m.relative(abs)).Info("storage file deleted")
	return nil
}

// symlinkLeaf 判断路径的最后一段是否为符号链接，返回父目录展开后的链接路径
func (m *Manager) symlinkLeaf(p string) (string, bool, error) {
	candidate, err := m.candidate(p)
	if err != nil {
		return "", false, err
	}
	stat, err := os.Lstat(candidate)
	if err != nil || stat.Mode()&fs.ModeSymlink == 0 {
		return "", false, nil
	}
	parent, err := m.Resolve(filepath.Dir(candidate))
	if err != nil {
		return "", false, err
	}
	return filepath.Join(parent, filepath.Base(candidate)), true, nil
}

// BatchDelete 逐个删除，单个失败不影响其他文件
func (m *Manager) BatchDelete(paths []string) BatchDeleteResult {
	result := BatchDeleteResult{
		DeletedFiles: make([]string, 0, len(paths)),
		FailedFiles:  make([]FailedFile, 0),
	}
	for _, p := range paths {
		if err := m.Delete(p); err != nil {
			result.FailedFiles = append(result.FailedFiles, FailedFile{Path: p, Error: describe(err)})
			continue
		}
		result.DeletedFiles = append(result.DeletedFiles, p)
	}
	result.TotalDeleted = len(result.DeletedFiles)
	result.TotalFailed = len(result.FailedFiles)
	return result
}

func describe(err error) string {
	switch {
	case errors.Is(err, ErrOutsideRoot):
		return "无权访问该文件"
	case errors.Is(err, ErrNotFound):
		return "文件不存在"
	case errors.Is(err, ErrEmptyPath):
		return "文件路径不能为空"
	default:
		return err.Error()
	}
}

// Open 校验下载路径，返回绝对路径和文件名
func (m *Manager) Open(p string) (string, string, error) {
	abs, err := m.Resolve(p)
	if err != nil {
		return "", "", err
	}
	stat, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", "", ErrNotFound
		}
		return "", "", errors.Wrap(err, "stat file")
	}
	if !stat.Mode().IsRegular() {
		return "", "", ErrNotRegularFile
	}
	return abs, filepath.Base(abs), nil
}

// Settings 返回当前设置的副本
func (m *Manager) Settings() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// UpdateSettings 更新保留天数、告警阈值和自动清理开关，存储路径不可修改。
func (m *Manager) UpdateSettings(s Settings) (Settings, error) {
	if s.FileRetentionDays < 1 {
		return Settings{}, errors.Wrap(ErrInvalidSettings, "fileRetentionDays must be >= 1")
	}
	if s.StorageWarningThreshold < 1 || s.StorageWarningThreshold > 100 {
		return Settings{}, errors.Wrap(ErrInvalidSettings, "storageWarningThreshold must be within 1..100")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings.AutoCleanup = s.AutoCleanup
	m.settings.FileRetentionDays = s.FileRetentionDays
	m.settings.StorageWarningThreshold = s.StorageWarningThreshold
	if interval := strings.TrimSpace(s.CleanupInterval); interval != "" {
		m.settings.CleanupInterval = interval
	}
	return m.settings, nil
}

// FileTypeStats 按类别统计数量和大小，类别顺序固定
func (m *Manager) FileTypeStats(ctx context.Context) ([]FileTypeStat, error) {
	files, err := m.walkFiles(ctx)
	if err != nil {
		return nil, err
	}
	order := []FileType{FileTypeModel, FileTypeImage, FileTypeDocument, FileTypeOther}
	index := make(map[FileType]int, len(order))
	stats := make([]FileTypeStat, len(order))
	for i, t := range order {
		index[t] = i
		stats[i] = FileTypeStat{Type: t, Name: t.TypeName()}
	}
	for _, f := range files {
		i, ok := index[f.Type]
		if !ok {
			i = index[FileTypeOther]
		}
		stats[i].Count++
		stats[i].Size += f.Size
	}
	return stats, nil
}

type scannedFile struct {
	abs     string
	size    int64
	modTime time.Time
}

// walkFiles 递归列出根目录下的普通文件，顺序按路径字典序
func (m *Manager) walkFiles(ctx context.Context) ([]FileInfo, error) {
	scanned, err := m.scan(ctx, m.root)
	if err != nil {
		return nil, err
	}
	files := make([]FileInfo, 0, len(scanned))
	for i, s := range scanned {
		name := filepath.Base(s.abs)
		t := ClassifyFile(name)
		files = append(files, FileInfo{
			ID:         i + 1,
			Name:       name,
			Type:       t,
			TypeName:   t.TypeName(),
			Size:       s.size,
			CreateTime: s.modTime,
			Path:       m.relative(s.abs),
		})
	}
	return files, nil
}

func (m *Manager) scan(ctx context.Context, dir string) ([]scannedFile, error) {
	var out []scannedFile
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			logrus.WithError(err).WithField("path", p).Warn("skip unreadable storage entry")
			if d != nil && d.IsDir() && p != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		out = append(out, scannedFile{abs: p, size: info.Size(), modTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "walk storage")
	}
	return out, nil
}

func (m *Manager) scanTempFiles(ctx context.Context) ([]scannedFile, error) {
	entries, err := os.ReadDir(filepath.Join(m.root, DirTemp))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read temp dir")
	}
	var out []scannedFile
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, scannedFile{
			abs:     filepath.Join(m.root, DirTemp, entry.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}
	return out, nil
}

// scanOldFiles 修改时间早于保留期的文件
func (m *Manager) scanOldFiles(ctx context.Context) ([]scannedFile, error) {
	files, err := m.scan(ctx, m.root)
	if err != nil {
		return nil, err
	}
	cutoff := m.now().AddDate(0, 0, -m.Settings().FileRetentionDays)
	var out []scannedFile
	for _, f := range files {
		if f.modTime.Before(cutoff) {
			out = append(out, f)
		}
	}
	return out, nil
}

// scanDuplicateFiles 大小和 md5 都相同的文件视为重复，每组保留路径最小的一个。
func (m *Manager) scanDuplicateFiles(ctx context.Context) ([]scannedFile, error) {
	files, err := m.scan(ctx, m.root)
	if err != nil {
		return nil, err
	}
	bySize := make(map[int64][]scannedFile)
	for _, f := range files {
		if f.size == 0 {
			continue
		}
		bySize[f.size] = append(bySize[f.size], f)
	}

	var out []scannedFile
	for _, group := range bySize {
		if len(group) < 2 {
			continue
		}
		byHash := make(map[string][]scannedFile)
		for _, f := range group {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			sum, err := fileMD5(f.abs)
			if err != nil {
				logrus.WithError(err).WithField("path", f.abs).Warn("hash storage file failed")
				continue
			}
			byHash[sum] = append(byHash[sum], f)
		}
		for _, same := range byHash {
			if len(same) < 2 {
				continue
			}
			sort.Slice(same, func(i, j int) bool { return same[i].abs < same[j].abs })
			out = append(out, same[1:]...)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].abs < out[j].abs })
	return out, nil
}

func fileMD5(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// scanEmptyFolders 空目录，不含根目录和标准子目录
func (m *Manager) scanEmptyFolders(ctx context.Context) ([]string, error) {
	protected := make(map[string]struct{}, len(standardDirs)+1)
	protected[m.root] = struct{}{}
	for _, dir := range standardDirs {
		protected[filepath.Join(m.root, dir)] = struct{}{}
	}

	var out []string
	err := filepath.WalkDir(m.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && p != m.root {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.IsDir() {
			return nil
		}
		if _, ok := protected[p]; ok {
			return nil
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil
		}
		if len(entries) == 0 {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "walk storage")
	}
	return out, nil
}

// ScanCleanup 统计可清理的临时文件、重复文件、过期文件和空目录
func (m *Manager) ScanCleanup(ctx context.Context) (CleanupStats, error) {
	var stats CleanupStats

	temp, err := m.scanTempFiles(ctx)
	if err != nil {
		return stats, err
	}
	stats.TempFiles, stats.TempFilesSize = len(temp), totalSize(temp)

	dups, err := m.scanDuplicateFiles(ctx)
	if err != nil {
		return stats, err
	}
	stats.DuplicateFiles, stats.DuplicateFilesSize = len(dups), totalSize(dups)

	old, err := m.scanOldFiles(ctx)
	if err != nil {
		return stats, err
	}
	stats.OldFiles, stats.OldFilesSize = len(old), totalSize(old)

	empty, err := m.scanEmptyFolders(ctx)
	if err != nil {
		return stats, err
	}
	stats.EmptyFolders = len(empty)
	return stats, nil
}

// ExecuteCleanup 按选项删除，单个文件失败只记录日志
func (m *Manager) ExecuteCleanup(ctx context.Context, opts CleanupOptions) (CleanupResult, error) {
	var result CleanupResult

	if opts.TempFiles {
		files, err := m.scanTempFiles(ctx)
		if err != nil {
			return result, err
		}
		result.TempFilesDeleted, result.TempFilesSize = m.removeFiles(files, "temp")
	}
	if opts.DuplicateFiles {
		files, err := m.scanDuplicateFiles(ctx)
		if err != nil {
			return result, err
		}
		result.DuplicateFilesDeleted, result.DuplicateFilesSize = m.removeFiles(files, "duplicate")
	}
	if opts.OldFiles {
		files, err := m.scanOldFiles(ctx)
		if err != nil {
			return result, err
		}
		result.OldFilesDeleted, result.OldFilesSize = m.removeFiles(files, "expired")
	}
	if opts.EmptyFolders {
		folders, err := m.scanEmptyFolders(ctx)
		if err != nil {
			return result, err
		}
		for _, dir := range folders {
			if err := os.Remove(dir); err != nil {
				logrus.WithError(err).WithField("path", m.relative(dir)).Warn("remove empty folder failed")
				continue
			}
			result.EmptyFoldersDeleted++
		}
	}

	logrus.WithFields(logrus.Fields{
		"temp":      result.TempFilesDeleted,
		"duplicate": result.DuplicateFilesDeleted,
		"expired":   result.OldFilesDeleted,
		"folders":   result.EmptyFoldersDeleted,
	}).Info("storage cleanup finished")
	return result, nil
}

// QuickCleanup 只清理临时文件和空目录
func (m *Manager) QuickCleanup(ctx context.Context) (CleanupResult, error) {
	return m.ExecuteCleanup(ctx, CleanupOptions{TempFiles: true, EmptyFolders: true})
}

func (m *Manager) removeFiles(files []scannedFile, kind string) (int, int64) {
	var (
		count int
		size  int64
	)
	for _, f := range files {
		// 扫描结果来自根目录内部，删除前仍按外部路径同样校验
		abs, err := m.Resolve(f.abs)
		if err != nil {
			logrus.WithError(err).WithField("path", f.abs).Warn("skip cleanup target")
			continue
		}
		if err := os.Remove(abs); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{"path": m.relative(abs), "kind": kind}).Warn("cleanup remove failed")
			continue
		}
		count++
		size += f.size
	}
	return count, size
}

func totalSize(files []scannedFile) int64 {
	var sum int64
	for _, f := range files {
		sum += f.size
	}
	return sum
}
