package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	sse "github.com/alexandrevicenzi/go-sse"
	"github.com/gorilla/mux"
	"github.com/mastercactapus/cncwarmup/archive"
	"github.com/mastercactapus/cncwarmup/dialect"
	"github.com/mastercactapus/cncwarmup/machine"
	"github.com/mastercactapus/cncwarmup/ramp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const programEvents = "/events/programs"

type api struct {
	http.Handler

	machines machine.Table
	store    *archive.Store
	defaults ramp.Settings
	dialect  ramp.Dialect
	opt      dialect.Options
	log      logrus.FieldLogger
	sse      *sse.Server

	generated *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

type apiConfig struct {
	Machines machine.Table
	Store    *archive.Store
	Settings ramp.Settings
	Dialect  ramp.Dialect
	Options  dialect.Options
	Logger   *logrus.Logger
}

func newAPI(cfg apiConfig) *api {
	r := mux.NewRouter()
	reg := prometheus.NewRegistry()

	a := &api{
		Handler:  r,
		machines: cfg.Machines,
		store:    cfg.Store,
		defaults: cfg.Settings,
		dialect:  cfg.Dialect,
		opt:      cfg.Options,
		log:      cfg.Logger,
		sse: sse.NewServer(&sse.Options{
			Logger: log.New(cfg.Logger.WriterLevel(logrus.DebugLevel), "sse: ", 0),
		}),
		generated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warmup_programs_generated_total",
			Help: "Warmup programs generated, by dialect.",
		}, []string{"dialect"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warmup_programs_failed_total",
			Help: "Rejected generation requests, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(a.generated, a.failed)

	r.HandleFunc("/api/machines", a.listMachines).Methods("GET")
	r.HandleFunc("/api/defaults", a.getDefaults).Methods("GET")
	r.HandleFunc("/api/programs", a.listPrograms).Methods("GET")
	r.HandleFunc("/api/programs", a.createProgram).Methods("POST")
	r.HandleFunc("/api/programs/{id}", a.getProgram).Methods("GET")
	r.HandleFunc("/api/programs/{id}", a.deleteProgram).Methods("DELETE")
	r.PathPrefix("/events/").Handler(a.sse)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return a
}

func (a *api) Close() { a.sse.Shutdown() }

func (a *api) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		a.log.WithError(err).Error("encode response")
	}
}

type machineInfo struct {
	ID string `json:"id"`
	ramp.MachineProfile
}

func (a *api) listMachines(w http.ResponseWriter, req *http.Request) {
	list := make([]machineInfo, 0, len(a.machines))
	for _, id := range a.machines.IDs() {
		m, _ := a.machines.Lookup(id)
		list = append(list, machineInfo{ID: id, MachineProfile: m})
	}
	a.writeJSON(w, http.StatusOK, list)
}

type programRequest struct {
	MachineID string               `json:"machineId"`
	Machine   *ramp.MachineProfile `json:"machine,omitempty"`
	Dialect   ramp.Dialect         `json:"dialect"`
	Layout    string               `json:"layout,omitempty"`
	Settings  ramp.Settings        `json:"settings"`
}

func (a *api) getDefaults(w http.ResponseWriter, req *http.Request) {
	a.writeJSON(w, http.StatusOK, programRequest{MachineID: "1", Dialect: a.dialect, Layout: a.opt.Layout.String(), Settings: a.defaults})
}

// errorReason classifies err for the failure counter and the status code.
func errorReason(err error) (string, int) {
	var (
		rangeErr   *ramp.InvalidRangeError
		stepErr    *ramp.InvalidStepCountError
		travelErr  *ramp.InvalidTravelError
		dialectErr *ramp.UnsupportedDialectError
		toolErr    *ramp.InvalidToolError
		machineErr *machine.UnknownMachineError
	)
	switch {
	case errors.As(err, &machineErr):
		return "unknown_machine", http.StatusNotFound
	case errors.As(err, &rangeErr):
		return "range", http.StatusBadRequest
	case errors.As(err, &stepErr):
		return "step_count", http.StatusBadRequest
	case errors.As(err, &travelErr):
		return "travel", http.StatusBadRequest
	case errors.As(err, &dialectErr):
		return "dialect", http.StatusBadRequest
	case errors.As(err, &toolErr):
		return "tool", http.StatusBadRequest
	}
	return "internal", http.StatusInternalServerError
}

func (a *api) fail(w http.ResponseWriter, err error) {
	reason, code := errorReason(err)
	a.failed.WithLabelValues(reason).Inc()
	if code == http.StatusInternalServerError {
		a.log.WithError(err).Error("generate program")
	}
	http.Error(w, err.Error(), code)
}

func (a *api) createProgram(w http.ResponseWriter, req *http.Request) {
	body := programRequest{
		Dialect:  a.dialect,
		Settings: a.defaults,
	}
	err := json.NewDecoder(req.Body).Decode(&body)
	if err != nil {
		a.failed.WithLabelValues("body").Inc()
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	opt := a.opt
	if body.Layout != "" {
		opt.Layout, err = dialect.ParseLayout(body.Layout)
		if err != nil {
			a.failed.WithLabelValues("layout").Inc()
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	// an inline profile is only tied to a table ID when the caller names one
	var m ramp.MachineProfile
	fileID := body.MachineID
	if body.Machine != nil {
		m = *body.Machine
		if fileID == "" {
			fileID = m.Name
		}
		if fileID == "" {
			fileID = "custom"
		}
	} else {
		if body.MachineID == "" {
			body.MachineID = "1"
		}
		fileID = body.MachineID
		m, err = a.machines.Lookup(body.MachineID)
		if err != nil {
			a.fail(w, err)
			return
		}
	}

	text, ext, err := buildProgram(ramp.NewRequest(m, body.Settings, body.Dialect), opt)
	if err != nil {
		a.fail(w, err)
		return
	}

	rec := &archive.Record{
		MachineID: body.MachineID,
		Machine:   m,
		Dialect:   body.Dialect,
		Settings:  body.Settings,
		Filename:  programFileName(fileID, ext),
		Program:   text,
	}
	err = a.store.Save(rec)
	if err != nil {
		a.fail(w, fmt.Errorf("save program: %w", err))
		return
	}
	a.generated.WithLabelValues(body.Dialect.String()).Inc()
	a.log.WithFields(logrus.Fields{"id": rec.ID, "machine": rec.MachineID, "dialect": rec.Dialect.String()}).Info("program generated")

	summary := *rec
	summary.Program = ""
	data, err := json.Marshal(summary)
	if err == nil {
		a.sse.SendMessage(programEvents, sse.SimpleMessage(string(data)))
	}

	a.writeJSON(w, http.StatusCreated, rec)
}

func (a *api) listPrograms(w http.ResponseWriter, req *http.Request) {
	list, err := a.store.List()
	if err != nil {
		a.log.WithError(err).Error("list programs")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []archive.Record{}
	}
	a.writeJSON(w, http.StatusOK, list)
}

func (a *api) lookupProgram(w http.ResponseWriter, req *http.Request) (*archive.Record, bool) {
	rec, err := a.store.Get(mux.Vars(req)["id"])
	if errors.Is(err, archive.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		a.log.WithError(err).Error("get program")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return rec, true
}

func (a *api) getProgram(w http.ResponseWriter, req *http.Request) {
	rec, ok := a.lookupProgram(w, req)
	if !ok {
		return
	}
	if strings.Contains(req.Header.Get("Accept"), "application/json") {
		a.writeJSON(w, http.StatusOK, rec)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.Filename))
	_, err := w.Write([]byte(rec.Program))
	if err != nil {
		a.log.WithError(err).Debug("write program")
	}
}

func (a *api) deleteProgram(w http.ResponseWriter, req *http.Request) {
	rec, ok := a.lookupProgram(w, req)
	if !ok {
		return
	}
	err := a.store.Delete(rec.ID)
	if err != nil {
		a.log.WithError(err).Error("delete program")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
