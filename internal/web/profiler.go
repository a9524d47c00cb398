package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	authmw "github.com/brizzai/auto-eda/internal/auth/middleware"
	"github.com/brizzai/auto-eda/internal/dataset"
	"github.com/brizzai/auto-eda/internal/logger"
	"github.com/brizzai/auto-eda/internal/profile"
	"github.com/brizzai/auto-eda/internal/session"
	"github.com/brizzai/auto-eda/internal/utils"
	"go.uber.org/zap"
)

// Session keys for profiler state
const (
	reportKey       = "profile.report"
	uploadKeyPrefix = "profile.upload."
)

// Form fields of the Data Profiler page
const (
	fieldCompare  = "compare"
	fieldGenerate = "generate"
	sampleSuffix  = "_sample"
	uploadSuffix  = "_upload"
)

const pickPrompt = "Pick (or upload) dataset(s) to start profiling."

type profilerView struct {
	Compare        bool
	Slots          []*datasetSlot
	Info           string
	Error          string
	Report         template.HTML
	HasReport      bool
	MaxUploadBytes int64
	PreviewRows    int
}

// datasetSlot is one "Dataset A" / "Dataset B" picker
type datasetSlot struct {
	Key      string
	Label    string
	Samples  []string
	Selected string
	FileName string
	Error    string
	Preview  *dataset.Frame
	Rows     int

	frame *dataset.Frame
}

// keptUpload is a parsed upload remembered across form posts, so a file
// previewed once can be profiled without picking it again
type keptUpload struct {
	FileName string
	Sample   string
	Frame    *dataset.Frame
}

func (p *Pages) newProfilerView(compare bool) *profilerView {
	view := &profilerView{
		Compare:        compare,
		MaxUploadBytes: p.profiler.MaxUploadBytes,
		PreviewRows:    p.profiler.PreviewRows,
	}
	for _, s := range []struct{ key, label string }{{"a", "Dataset A"}, {"b", "Dataset B"}} {
		view.Slots = append(view.Slots, &datasetSlot{
			Key:      s.key,
			Label:    s.label,
			Samples:  p.catalog.Names(),
			Selected: dataset.SampleNone,
		})
	}
	return view
}

func (p *Pages) handleProfiler(w http.ResponseWriter, r *http.Request) {
	identity, ok := p.displayIdentity(w, r)
	if !ok {
		return
	}

	view := p.newProfilerView(false)
	view.Info = pickPrompt
	if sess := authmw.SessionFromContext(r.Context()); sess != nil {
		_, view.HasReport = sess.Value(reportKey)
	}
	p.render(w, pageProfiler, &pageData{Title: "Data Profiler", Nav: "profiler", Identity: identity, Profiler: view})
}

func (p *Pages) handleProfilerSubmit(w http.ResponseWriter, r *http.Request) {
	identity, ok := p.displayIdentity(w, r)
	if !ok {
		return
	}
	data := &pageData{Title: "Data Profiler", Nav: "profiler", Identity: identity}

	maxBytes := p.profiler.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		view := p.newProfilerView(false)
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
			view.Error = fmt.Sprintf("Upload exceeds the %s limit.", formatLimit(maxBytes))
		} else {
			view.Error = "Failed to read the submitted form."
		}
		logger.Warn("Failed to parse profiler form", zap.Error(err))
		data.Profiler = view
		p.renderStatus(w, status, pageProfiler, data)
		return
	}
	if r.MultipartForm != nil {
		defer func() {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				logger.Warn("Failed to remove multipart temp files", zap.Error(err))
			}
		}()
	}

	view := p.newProfilerView(r.FormValue(fieldCompare) != "")
	data.Profiler = view

	active := view.Slots[:1]
	if view.Compare {
		active = view.Slots
	}
	sess := authmw.SessionFromContext(r.Context())
	for _, slot := range active {
		p.pickDataset(r.Context(), r, sess, slot)
	}

	a := view.Slots[0].frame
	var b *dataset.Frame
	if view.Compare {
		b = view.Slots[1].frame
	}
	if a == nil || (view.Compare && b == nil) {
		view.Info = pickPrompt
		p.render(w, pageProfiler, data)
		return
	}

	for _, slot := range active {
		slot.Preview = slot.frame.Head(p.profiler.PreviewRows)
		slot.Rows = slot.frame.NumRows()
	}

	if sess != nil {
		_, view.HasReport = sess.Value(reportKey)
	}

	if r.FormValue(fieldGenerate) != "" {
		report, html, err := p.generateReport(view, a, b)
		if err != nil {
			logger.Error("Failed to generate report", zap.Error(err))
			view.Error = "Failed to generate report: " + err.Error()
		} else {
			view.Report = html
			if sess != nil {
				sess.Put(reportKey, report)
				view.HasReport = true
			}
		}
	}

	p.render(w, pageProfiler, data)
}

// pickDataset resolves a slot from its sample selector and upload field. An
// uploaded file takes precedence over the sample and is kept in the session
// until another file is uploaded or a different sample is picked.
func (p *Pages) pickDataset(ctx context.Context, r *http.Request, sess *session.Session, slot *datasetSlot) {
	if name := strings.TrimSpace(r.FormValue(slot.Key + sampleSuffix)); name != "" {
		slot.Selected = name
	}
	key := uploadKeyPrefix + slot.Key

	file, header, err := r.FormFile(slot.Key + uploadSuffix)
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		if kept, ok := keptUploadFor(sess, key); ok {
			if kept.Sample == slot.Selected {
				slot.FileName = kept.FileName
				slot.frame = kept.Frame
				return
			}
			sess.Forget(key)
		}
		p.loadSample(ctx, slot)
		return
	case err != nil:
		slot.Error = "Failed to read upload: " + err.Error()
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Warn("Failed to close upload", zap.Error(err))
		}
	}()

	slot.FileName = header.Filename
	frame, err := dataset.ParseCSV(file)
	p.metrics.DatasetLoad("upload", err)
	if err != nil {
		logger.Info("Rejected CSV upload", zap.String("file", header.Filename), zap.Error(err))
		slot.Error = "Failed to read CSV: " + err.Error()
		if sess != nil {
			sess.Forget(key)
		}
		return
	}
	slot.frame = frame
	if sess != nil {
		sess.Put(key, &keptUpload{FileName: header.Filename, Sample: slot.Selected, Frame: frame})
	}
}

func (p *Pages) loadSample(ctx context.Context, slot *datasetSlot) {
	frame, err := p.catalog.Load(ctx, slot.Selected)
	if err != nil {
		slot.Error = fmt.Sprintf("Could not load sample %s.", slot.Selected)
		return
	}
	slot.frame = frame
}

func keptUploadFor(sess *session.Session, key string) (*keptUpload, bool) {
	if sess == nil {
		return nil, false
	}
	value, _ := sess.Value(key)
	kept, ok := value.(*keptUpload)
	return kept, ok && kept != nil
}

func (p *Pages) generateReport(view *profilerView, a, b *dataset.Frame) (*profile.Report, template.HTML, error) {
	var (
		report *profile.Report
		err    error
	)
	mode := profile.ModeAnalyze
	if view.Compare {
		mode = profile.ModeCompare
		report, err = profile.Compare(a, "A", b, "B")
	} else {
		report, err = profile.Analyze(a, view.Slots[0].title())
	}

	var html template.HTML
	if err == nil {
		html, err = profile.RenderHTML(report)
	}
	p.metrics.Report(mode, err)
	if err != nil {
		return nil, "", err
	}
	return report, html, nil
}

func (s *datasetSlot) title() string {
	switch {
	case s.FileName != "" && s.frame != nil:
		return s.FileName
	case s.Selected != "" && s.Selected != dataset.SampleNone:
		return s.Selected
	default:
		return s.Label
	}
}

func (p *Pages) handleReportYAML(w http.ResponseWriter, r *http.Request) {
	sess := authmw.SessionFromContext(r.Context())
	if sess == nil {
		utils.WriteError(w, "server_error", "No session", http.StatusInternalServerError)
		return
	}

	value, ok := sess.Value(reportKey)
	report, _ := value.(*profile.Report)
	if !ok || report == nil {
		utils.WriteError(w, "not_found", "No report has been generated in this session", http.StatusNotFound)
		return
	}

	body, err := profile.MarshalYAML(report)
	if err != nil {
		logger.Error("Failed to export report", zap.Error(err))
		utils.WriteError(w, "server_error", "Failed to export report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="eda-report.yaml"`)
	utils.WriteBytes(w, "application/yaml", body)
}
