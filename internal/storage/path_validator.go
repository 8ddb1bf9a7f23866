package storage

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"unicode"

	"ypg-dashboard/pkg/apierror"
)

// PathValidator confines media paths stored on records to the uploads root.
type PathValidator struct {
	rootAbs string
}

func NewPathValidator(root string) (*PathValidator, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("uploads root cannot be empty")
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve uploads root: %w", err)
	}

	return &PathValidator{rootAbs: rootAbs}, nil
}

func (v *PathValidator) RootAbs() string {
	return v.rootAbs
}

// ResolvePath maps a stored media path such as "team/jane.jpg" or
// "/media/team/jane.jpg" to an absolute file path under the root. The root
// itself is never a valid target.
func (v *PathValidator) ResolvePath(mediaPath string) (string, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(mediaPath), `\`, "/")
	normalized = strings.TrimPrefix(normalized, "/")
	normalized = strings.TrimPrefix(normalized, "media/")

	if strings.Contains(normalized, "\x00") || hasControlCharacters(normalized) {
		return "", apierror.New("INVALID_MEDIA_PATH", "media path contains invalid characters", mediaPath, http.StatusBadRequest)
	}

	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return "", apierror.Forbidden("MEDIA_PATH_TRAVERSAL", "path traversal attempt detected", mediaPath)
		}
	}

	cleanRel := filepath.Clean(normalized)
	if cleanRel == "." || cleanRel == "" {
		return "", apierror.New("INVALID_MEDIA_PATH", "media path is empty", mediaPath, http.StatusBadRequest)
	}

	resolvedAbs, err := filepath.Abs(filepath.Join(v.rootAbs, cleanRel))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}

	if resolvedAbs == v.rootAbs || !isWithinRoot(v.rootAbs, resolvedAbs) {
		return "", apierror.Forbidden("MEDIA_PATH_TRAVERSAL", "resolved path is outside uploads root", mediaPath)
	}

	return resolvedAbs, nil
}

func hasControlCharacters(value string) bool {
	for _, char := range value {
		if unicode.IsControl(char) {
			return true
		}
	}
	return false
}

func isWithinRoot(rootAbs string, candidateAbs string) bool {
	if candidateAbs == rootAbs {
		return true
	}
	return strings.HasPrefix(candidateAbs, rootAbs+string(filepath.Separator))
}
