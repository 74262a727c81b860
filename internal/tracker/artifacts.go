package tracker

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Artifact subdirectory convention under each company directory.
const (
	dirResumes      = "tailored_resumes"
	dirCoverLetters = "cover_letters"
	dirSubmissions  = "submissions"
	dirPostings     = "job_postings"
)

// ResolveArtifacts walks the company's artifact directory and buckets
// files by convention. Paths are returned relative to applicationsDir.
// A missing company directory yields empty paths, not an error: artifacts
// are optional.
func ResolveArtifacts(applicationsDir, company string) ArtifactPaths {
	companyDir := filepath.Join(applicationsDir, Slug(company))

	var out ArtifactPaths
	_ = filepath.WalkDir(companyDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil //nolint:nilerr // unreadable subtrees are skipped
		}
		rel, relErr := filepath.Rel(applicationsDir, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		switch {
		case strings.Contains(rel, "/"+dirResumes+"/"):
			out.Resumes = append(out.Resumes, rel)
		case strings.Contains(rel, "/"+dirCoverLetters+"/"):
			out.CoverLetters = append(out.CoverLetters, rel)
		case strings.Contains(rel, "/"+dirSubmissions+"/"):
			out.Evidence = append(out.Evidence, rel)
		case strings.Contains(rel, "/"+dirPostings+"/"):
			if out.JobPosting == "" || rel < out.JobPosting {
				out.JobPosting = rel
			}
		}
		return nil
	})

	sort.Strings(out.Resumes)
	sort.Strings(out.CoverLetters)
	sort.Strings(out.Evidence)
	return out
}
