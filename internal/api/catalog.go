package api

import (
	"net/http"

	"diamond-shop/internal/model"
)

func (s *Server) listPackages(w http.ResponseWriter, r *http.Request) {
	var pkgType *model.PackageType
	if t := r.URL.Query().Get("type"); t != "" {
		pt := model.PackageType(t)
		pkgType = &pt
	}

	pkgs, err := s.deps.Catalog.ListPackages(r.Context(), pkgType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pkgs)
}

func (s *Server) getPackage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	pkg, err := s.deps.Catalog.GetPackage(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pkg)
}

func (s *Server) listPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := s.deps.Catalog.ListPaymentMethods(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, methods)
}
