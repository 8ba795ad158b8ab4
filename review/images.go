package review

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultImageExtensions are probed in order when resolving an image name.
var DefaultImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp"}

// ImageResolver maps record file names to image files inside one directory.
type ImageResolver struct {
	dir   string
	exts  []string
	found *cache.Cache
}

// NewImageResolver validates dir and returns a resolver for it. A positive
// ttl remembers successful lookups for that long.
func NewImageResolver(dir string, exts []string, ttl time.Duration) (*ImageResolver, error) {
	clean := filepath.Clean(strings.TrimSpace(dir))
	info, err := os.Stat(clean)
	if strings.TrimSpace(dir) == "" || err != nil || !info.IsDir() {
		return nil, &DirectoryNotFoundError{Path: dir}
	}
	if len(exts) == 0 {
		exts = DefaultImageExtensions
	}
	r := &ImageResolver{dir: clean, exts: append([]string(nil), exts...)}
	if ttl > 0 {
		// No janitor goroutine; expired entries are ignored on read.
		r.found = cache.New(ttl, 0)
	}
	return r, nil
}

// Dir returns the image directory.
func (r *ImageResolver) Dir() string { return r.dir }

// Candidates lists the paths probed for name, in probe order.
func (r *ImageResolver) Candidates(name string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = name
	}
	out := make([]string, 0, len(r.exts)+1)
	seen := make(map[string]struct{}, len(r.exts)+1)
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for _, ext := range r.exts {
		add(filepath.Join(r.dir, base+ext))
	}
	add(filepath.Join(r.dir, name))
	return out
}

// Resolve returns the first existing image for name, or an
// *ImageNotFoundError listing every probed path. A cached path is used only
// while the file is still there.
func (r *ImageResolver) Resolve(name string) (string, error) {
	if r.found != nil {
		if p, ok := r.found.Get(name); ok {
			if isRegularFile(p.(string)) {
				return p.(string), nil
			}
			r.found.Delete(name)
		}
	}
	candidates := r.Candidates(name)
	for _, p := range candidates {
		if !r.within(p) || !isRegularFile(p) {
			continue
		}
		if r.found != nil {
			r.found.SetDefault(name, p)
		}
		return p, nil
	}
	return "", &ImageNotFoundError{Name: name, Tried: candidates}
}

func isRegularFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

func (r *ImageResolver) within(p string) bool {
	rel, err := filepath.Rel(r.dir, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
