package utils

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"learnhub/models"

	"github.com/google/uuid"
)

// SaveUploadedFile stores an uploaded section file under destDir with a
// random name and describes it for the course record.
func SaveUploadedFile(file *multipart.FileHeader, destDir string) (models.SectionContent, error) {
	src, err := file.Open()
	if err != nil {
		return models.SectionContent{}, err
	}
	defer src.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return models.SectionContent{}, err
	}

	newFilename := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	dst, err := os.Create(filepath.Join(destDir, newFilename))
	if err != nil {
		return models.SectionContent{}, err
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		return models.SectionContent{}, err
	}

	return models.SectionContent{
		Filename: newFilename,
		Path:     GetFileURL(newFilename),
		Mimetype: file.Header.Get("Content-Type"),
		Size:     size,
	}, nil
}

func GetFileURL(filename string) string {
	if filename == "" {
		return ""
	}
	return "/uploads/" + filename
}

// RemoveSectionFiles deletes the stored files of a course and returns how
// many were removed. Missing files are ignored.
func RemoveSectionFiles(destDir string, sections []models.Section) int {
	removed := 0
	for _, s := range sections {
		if s.Content.Filename == "" {
			continue
		}
		if err := os.Remove(filepath.Join(destDir, filepath.Base(s.Content.Filename))); err == nil {
			removed++
		}
	}
	return removed
}
