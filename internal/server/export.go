package server

import "net/http"

func (s *Server) handleExportExcel(w http.ResponseWriter, r *http.Request) {
	filename := s.svc.ExportFilename()
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := s.svc.ExportWorkbook(r.Context(), w); err != nil {
		w.Header().Del("Content-Disposition")
		s.writeError(w, r, err)
	}
}

func (s *Server) handleExportLabel(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.badRequest(w, "invalid item id")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.svc.RenderLabel(r.Context(), id, w); err != nil {
		s.writeError(w, r, err)
	}
}
