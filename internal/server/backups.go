package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lostfound/internal/lf"
	"lostfound/internal/model"
)

type backupView struct {
	Filename string `json:"filename"`
	Kind     string `json:"kind"`
	Size     int64  `json:"size"`
	Created  string `json:"created"`
}

// newBackupView reports the vault's modification time as the creation time,
// so snapshots copied into the vault by hand show when they arrived.
func newBackupView(m *lf.SnapshotMetadata) backupView {
	created := m.CreatedAt
	if !m.ModifiedAt.IsZero() {
		created = m.ModifiedAt.In(m.CreatedAt.Location())
	}
	return backupView{
		Filename: m.Filename,
		Kind:     string(m.Kind),
		Size:     m.Size,
		Created:  created.Format(model.TimestampLayout),
	}
}

func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	snapshots, err := s.svc.ListSnapshots(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	views := make([]backupView, 0, len(snapshots))
	for _, m := range snapshots {
		views = append(views, newBackupView(m))
	}
	s.writeJSON(w, http.StatusOK, envelope{"backups": views})
}

func (s *Server) handleCreateBackup(kind lf.SnapshotKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta, err := s.svc.CreateSnapshot(r.Context(), kind)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		status := http.StatusCreated
		if !meta.Created {
			status = http.StatusOK
		}
		s.writeJSON(w, status, envelope{
			"filename": meta.Filename,
			"records":  meta.RecordCount,
			"size":     meta.Size,
			"created":  meta.Created,
		})
	}
}

func (s *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.RestoreSnapshot(r.Context(), chi.URLParam(r, "filename"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{
		"filename": result.Filename,
		"records":  result.RecordCount,
	})
}

func (s *Server) handleDeleteBackup(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteSnapshot(r.Context(), chi.URLParam(r, "filename")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := lf.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.badRequest(w, "invalid limit")
			return
		}
		limit = n
	}

	ops, err := s.svc.GetHistory(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ops == nil {
		ops = []*lf.Operation{}
	}
	s.writeJSON(w, http.StatusOK, envelope{"history": ops})
}
