// Package codegen turns a plan into site files and writes them out.
package codegen

// #region imports
import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/danielpatrickdp/tastegate/internal/failure"
)

// #endregion

// #region artifacts

// Artifact is one generated file. Path is slash-separated and relative.
type Artifact struct {
	Path    string
	Content string
}

// ArtifactSet is the output of one generation attempt.
type ArtifactSet struct {
	Files []Artifact
}

var (
	tasteExts     = map[string]bool{".ts": true, ".tsx": true, ".js": true, ".jsx": true, ".html": true}
	technicalExts = map[string]bool{".ts": true, ".tsx": true, ".js": true, ".jsx": true, ".html": true, ".css": true}
)

// TasteFiles returns the files the taste review reads: markup and script.
func (s ArtifactSet) TasteFiles() []Artifact {
	return s.filter(tasteExts, 0)
}

// TechnicalFiles returns up to limit code and stylesheet files (limit <= 0 means all).
func (s ArtifactSet) TechnicalFiles(limit int) []Artifact {
	return s.filter(technicalExts, limit)
}

func (s ArtifactSet) filter(exts map[string]bool, limit int) []Artifact {
	var out []Artifact
	for _, f := range s.Files {
		if !exts[strings.ToLower(path.Ext(f.Path))] {
			continue
		}
		out = append(out, f)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Paths lists the file paths in order.
func (s ArtifactSet) Paths() []string {
	out := make([]string, len(s.Files))
	for i, f := range s.Files {
		out[i] = f.Path
	}
	return out
}

// #endregion

// #region parse

// cleanPath roots a model-supplied path at the output directory by dropping
// leading "/" and "./". Parent references are left for the writer to reject.
func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	for {
		switch {
		case strings.HasPrefix(p, "/"):
			p = p[1:]
		case strings.HasPrefix(p, "./"):
			p = p[2:]
		default:
			return p
		}
	}
}

var (
	codeBlockRe  = regexp.MustCompile("(?s)```[\\w.+-]*\\n(.*?)```")
	fileMarkerRe = regexp.MustCompile(`//\s*File:\s*([^\n]+)`)
)

// ParseCodeBlocks splits a generator response into files, one per fenced block.
// A "// File: <path>" comment names the file; otherwise block i becomes file{i}.tsx.
// A response without blocks is a ParseFailure.
func ParseCodeBlocks(raw string) (ArtifactSet, error) {
	matches := codeBlockRe.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return ArtifactSet{}, &failure.Error{Kind: failure.KindParse, Stage: "generate", Reason: "no artifact produced"}
	}

	set := ArtifactSet{Files: make([]Artifact, 0, len(matches))}
	for i, m := range matches {
		content := strings.TrimSpace(m[1])
		name := fmt.Sprintf("file%d.tsx", i)
		if fm := fileMarkerRe.FindStringSubmatch(content); fm != nil {
			if p := cleanPath(fm[1]); p != "" {
				name = p
			}
		}
		set.Files = append(set.Files, Artifact{Path: name, Content: content})
	}
	return set, nil
}

// #endregion
