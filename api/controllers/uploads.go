package controllers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/autoaudit/autoaudit-backend/api/middleware"
	"github.com/autoaudit/autoaudit-backend/api/responses"
	pkgerrors "github.com/autoaudit/autoaudit-backend/pkg/errors"
	"github.com/autoaudit/autoaudit-backend/pkg/logger"
	"github.com/autoaudit/autoaudit-backend/pkg/storage"
	"github.com/google/uuid"
)

// UploadsCreate accepts one multipart file and stores it under a
// uuid-prefixed key scoped to the user. The returned URL is what the client
// later passes to analyze.
func UploadsCreate(store storage.ObjectStore, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "storage unavailable"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file exceeds the maximum allowed size"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "a file field is required"))
			return
		}
		defer file.Close()

		userID := middleware.UserIDFromContext(ctx)
		key := userID.String() + "/" + uuid.NewString() + sanitizeExt(header.Filename)

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		fileURL, err := store.Put(ctx, key, file, header.Size, contentType)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing file"))
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{
			"file_url": fileURL,
			"key":      key,
		})
	}
}

// sanitizeExt keeps only a short, lowercase extension from the original
// filename. Keys never embed user-controlled names.
func sanitizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) == 0 || len(ext) > 6 {
		return ""
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return ext
}
