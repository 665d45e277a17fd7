package plotsrv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/qtmlab/qtmtoolbox/liveplot"
)

// reloadScript makes the page poll: the browser re-renders the current
// snapshot every interval, the Go side never pushes
const reloadScript = `<script>setTimeout(function(){location.reload();}, 1000);</script>`

// Router returns the chi router for the plot window
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.handlePage)
	r.Get("/data", s.handleData)
	r.Post("/axes", s.handleAxes)
	r.Post("/swap", s.handleSwap)
	r.Get("/live", s.handleLiveGet)
	r.Post("/live", s.handleLiveSet)
	r.Post("/open", s.handleOpen)
	return r
}

// handlePage renders the current snapshot as an echarts page
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	st := s.snapshot()
	var buf bytes.Buffer
	var err error
	switch st.mode {
	case modeImage:
		err = renderHeatmap(&buf, st)
	default:
		// an empty snapshot renders as an empty line chart, which is the
		// empty coordinate frame the page should show
		err = renderLine(&buf, st)
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to render chart: %v", err), http.StatusInternalServerError)
		return
	}
	buf.WriteString(reloadScript)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func renderLine(buf *bytes.Buffer, st state) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "liveplot", Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: st.yLabel + " vs " + st.xLabel}),
		charts.WithXAxisOpts(opts.XAxis{Name: st.xLabel, Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: st.yLabel, Type: "value"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	line.AddSeries(st.yLabel, lineData(st.lineX, st.lineY))
	if st.line2X != nil {
		line.AddSeries("trace 2", lineData(st.line2X, st.line2Y))
	}
	return line.Render(buf)
}

func lineData(xs, ys []float64) []opts.LineData {
	data := make([]opts.LineData, 0, len(xs))
	for i := range xs {
		data = append(data, opts.LineData{Value: []interface{}{xs[i], ys[i]}})
	}
	return data
}

func renderHeatmap(buf *bytes.Buffer, st state) error {
	g := st.grid
	rows, cols := g.Rows(), g.Cols()
	data := make([]opts.HeatMapData, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			data = append(data, opts.HeatMapData{Value: [3]interface{}{i, j, g.Data.At(i, j)}})
		}
	}
	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "liveplot", Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    st.yLabel + " vs " + st.xLabel,
			Subtitle: fmt.Sprintf("x [%g, %g]  y [%g, %g]", g.X0, g.X1, g.Y0, g.Y1),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: st.xLabel, Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Name: st.yLabel, Type: "category"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        float32(st.cmin),
			Max:        float32(st.cmax),
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#31688e", "#35b779", "#fde725"}},
		}),
	)
	hm.AddSeries("data", data)
	return hm.Render(buf)
}

// plotData is the JSON shape of the /data endpoint
type plotData struct {
	Path      string    `json:"path"`
	Variables []string  `json:"variables"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Y2        int       `json:"y2"`
	Z         int       `json:"z"`
	Mode      string    `json:"mode"`
	LineX     []float64 `json:"line_x,omitempty"`
	LineY     []float64 `json:"line_y,omitempty"`
	Live      bool      `json:"live"`
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	st := s.snapshot()
	pd := plotData{Mode: "empty"}
	switch st.mode {
	case modeLine:
		pd.Mode = "line"
		pd.LineX, pd.LineY = st.lineX, st.lineY
	case modeImage:
		pd.Mode = "image"
	}
	if s.Plot != nil {
		pd.Path = s.Plot.CurrentPath()
		pd.Variables = s.Plot.Variables()
		pd.X, pd.Y, pd.Y2, pd.Z = s.Plot.Selection()
	}
	if s.Live != nil {
		pd.Live = s.Live.Running()
	}
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(pd)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// axisReq selects one axis by name
type axisReq struct {
	Axis  string `json:"axis"`
	Index int    `json:"index"`
}

func (s *Server) handleAxes(w http.ResponseWriter, r *http.Request) {
	if s.Plot == nil {
		http.Error(w, "no controller attached", http.StatusServiceUnavailable)
		return
	}
	var req axisReq
	err := json.NewDecoder(r.Body).Decode(&req)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var which liveplot.Axis
	switch req.Axis {
	case "x":
		which = liveplot.AxisX
	case "y":
		which = liveplot.AxisY
	case "y2":
		which = liveplot.AxisY2
	case "z":
		which = liveplot.AxisZ
	default:
		http.Error(w, fmt.Sprintf("unknown axis %q", req.Axis), http.StatusBadRequest)
		return
	}
	s.Plot.SetAxis(which, req.Index)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	if s.Plot == nil {
		http.Error(w, "no controller attached", http.StatusServiceUnavailable)
		return
	}
	s.Plot.SwapOrientation()
	w.WriteHeader(http.StatusOK)
}

type liveReq struct {
	Live bool `json:"live"`
}

func (s *Server) handleLiveGet(w http.ResponseWriter, r *http.Request) {
	running := s.Live != nil && s.Live.Running()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(liveReq{Live: running})
}

func (s *Server) handleLiveSet(w http.ResponseWriter, r *http.Request) {
	if s.Live == nil {
		http.Error(w, "no poller attached", http.StatusServiceUnavailable)
		return
	}
	var req liveReq
	err := json.NewDecoder(r.Body).Decode(&req)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Live {
		s.Live.Start()
	} else {
		s.Live.Stop()
	}
	w.WriteHeader(http.StatusOK)
}

type openReq struct {
	Path string `json:"path"`
}

// handleOpen loads a specific file by hand.  Opening a file stops the live
// poll; otherwise the next tick would snap the view back to the freshest
// file and undo the choice.
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	if s.Plot == nil {
		http.Error(w, "no controller attached", http.StatusServiceUnavailable)
		return
	}
	var req openReq
	err := json.NewDecoder(r.Body).Decode(&req)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.Live != nil {
		s.Live.Stop()
	}
	err = s.Plot.SelectFile(req.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
