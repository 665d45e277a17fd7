package server

import (
	"encoding/json"
	"net/http"

	"goji.io/pat"

	"github.com/qtmlab/qtmtoolbox/param"
)

// ParamInfo describes one registered parameter in the listing endpoint
type ParamInfo struct {
	ID    string `json:"id"`
	Read  bool   `json:"read"`
	Write bool   `json:"write"`
}

// ParamServer exposes a param.Registry over HTTP.  Every parameter gets a
// GET route if it is readable and a POST route if it is writable, plus a
// listing endpoint enumerating all of them.
type ParamServer struct {
	reg *param.Registry

	routeTable RouteTable
}

// NewParamServer builds the route table for reg
func NewParamServer(reg *param.Registry) *ParamServer {
	ps := &ParamServer{reg: reg}
	rt := RouteTable{
		pat.Get("/params"): ps.List,
	}
	for _, id := range reg.IDs() {
		if reg.CanRead(id) {
			r, _ := reg.Readable(id)
			rt[pat.Get("/param/"+id)] = GetFloat(r.Read)
		}
		if reg.CanWrite(id) {
			w, _ := reg.Writable(id)
			rt[pat.Post("/param/"+id)] = SetFloat(w.Write)
		}
	}
	ps.routeTable = rt
	return ps
}

// RT satisfies HTTPer
func (ps *ParamServer) RT() RouteTable {
	return ps.routeTable
}

// List replies with a JSON array of ParamInfo for every registered parameter
func (ps *ParamServer) List(w http.ResponseWriter, r *http.Request) {
	ids := ps.reg.IDs()
	infos := make([]ParamInfo, len(ids))
	for i, id := range ids {
		infos[i] = ParamInfo{
			ID:    id,
			Read:  ps.reg.CanRead(id),
			Write: ps.reg.CanWrite(id),
		}
	}
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(infos)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
