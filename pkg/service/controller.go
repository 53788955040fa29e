package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ignatij/sheetflow/pkg/form"
	"github.com/ignatij/sheetflow/pkg/models"
	"github.com/ignatij/sheetflow/pkg/schema"
	"github.com/pkg/errors"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNoForm            = errors.New("no form is open")
	ErrUnknownField      = errors.New("unknown field")
	ErrReadOnlyField     = errors.New("field is read-only")
	ErrBusy              = errors.New("a submission is in progress")
)

// LocalSaveSuffix is appended to failure messages of journaled workflows.
const LocalSaveSuffix = " El registro se ha guardado localmente."

// Submitter delivers one record to the remote sheet. *sheets.Client implements it.
type Submitter interface {
	Submit(ctx context.Context, data models.FormState, endpointURL string, sheet models.SheetID, sheetURL string) (string, error)
}

// Settings are the deployment values resolved once at startup.
type Settings struct {
	EndpointURL string
	SheetURL    string
	AutoHours   bool // fill the worked-hours field from the start/end bounds
}

// ControllerOption customizes a Controller.
type ControllerOption func(*Controller)

// WithClock replaces time.Now for form defaults and journal timestamps.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.now = now
	}
}

// WithIDGenerator replaces the random history item ids.
func WithIDGenerator(newID func() string) ControllerOption {
	return func(c *Controller) {
		c.newID = newID
	}
}

// Snapshot is an independent copy of everything a front end renders.
type Snapshot struct {
	Screen   string                  `json:"screen"`           // "home", "personnel_menu", "form"
	Workflow models.Workflow         `json:"workflow"`         // Empty on the home screen
	Schema   *schema.Schema          `json:"schema,omitempty"` // Set on the form screen only
	Form     models.FormState        `json:"form"`
	Errors   models.ErrorState       `json:"errors"`
	Status   models.SubmissionStatus `json:"status"`
	History  []models.HistoryItem    `json:"history"`
	Loading  bool                    `json:"loading"`
}

// Controller drives one data-entry session: workflow navigation, field edits
// and submissions. It is safe for concurrent use; the lock is not held
// during the network call.
type Controller struct {
	catalog   *schema.Catalog
	submitter Submitter
	journal   *Journal
	settings  Settings
	logger    Logger
	now       func() time.Time
	newID     func() string

	mu      sync.Mutex
	screen  Screen
	form    models.FormState
	errs    models.ErrorState
	status  models.SubmissionStatus
	history []models.HistoryItem
	loading bool
}

func NewController(catalog *schema.Catalog, submitter Submitter, journal *Journal, settings Settings, logger Logger, opts ...ControllerOption) *Controller {
	c := &Controller{
		catalog:   catalog,
		submitter: submitter,
		journal:   journal,
		settings:  settings,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
		screen:    HomeScreen{},
		form:      models.FormState{},
		errs:      models.ErrorState{},
		status:    models.IdleSubmission,
		history:   []models.HistoryItem{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Select moves to the menu or form of wf.
func (c *Controller) Select(wf models.Workflow) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return ErrBusy
	}
	if !allowed(c.screen, wf) {
		return errors.Wrapf(ErrInvalidTransition, "cannot select '%s' from %s", wf, c.screen.Name())
	}
	if wf == models.PersonnelWorkflow {
		c.reset(PersonnelMenuScreen{})
	} else {
		c.enterForm(wf)
	}
	c.logger.Infof("Selected workflow '%s'", wf)
	return nil
}

// Back returns to the previous menu. On the home screen it is a no-op.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return ErrBusy
	}
	c.reset(previous(c.screen))
	return nil
}

// SetField sanitizes raw, stores it and re-validates that field.
func (c *Controller) SetField(id, raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fs, ok := c.screen.(FormScreen)
	if !ok {
		return ErrNoForm
	}
	field, ok := fs.Schema.Field(id)
	if !ok {
		return errors.Wrapf(ErrUnknownField, "'%s' is not a field of '%s'", id, fs.Workflow())
	}
	if field.ReadOnly {
		return errors.Wrapf(ErrReadOnlyField, "'%s'", id)
	}

	wf := fs.Workflow()
	value := form.Sanitize(wf, id, raw)
	c.form[id] = value
	c.errs = form.Validate(wf, id, value, c.errs)
	if c.autoHours(wf) && slices.Contains(form.HoursBoundFields, id) {
		c.fillHours(wf)
	}
	return nil
}

// Submit sends the open form. Remote failures are reported through the
// returned status; the error is only set when nothing was attempted.
func (c *Controller) Submit(ctx context.Context) (models.SubmissionStatus, error) {
	c.mu.Lock()
	fs, ok := c.screen.(FormScreen)
	if !ok {
		c.mu.Unlock()
		return models.SubmissionStatus{}, ErrNoForm
	}
	if c.loading {
		c.mu.Unlock()
		return models.SubmissionStatus{}, ErrBusy
	}
	c.loading = true
	c.status = models.IdleSubmission
	data := c.form.Clone()
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	wf := fs.Workflow()
	msg, err := c.submitter.Submit(ctx, data, c.settings.EndpointURL, fs.Schema.Sheet, c.settings.SheetURL)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Errorf("Submission of workflow '%s' failed: %v", wf, err)
		message := err.Error()
		if wf.IsPersonnel() {
			message += LocalSaveSuffix
		}
		c.status = models.SubmissionStatus{Kind: models.ErrorStatus, Message: message}
	} else {
		c.logger.Infof("Submitted workflow '%s' to sheet '%s'", wf, fs.Schema.Sheet)
		c.status = models.SubmissionStatus{Kind: models.SuccessStatus, Message: msg}
	}

	if wf.IsPersonnel() {
		item := models.HistoryItem{
			ID:        c.newID(),
			Data:      data,
			Timestamp: c.now(),
			Synced:    err == nil,
		}
		history, jerr := c.journal.Append(wf, c.history, item)
		if jerr != nil {
			c.logger.Errorf("Record of workflow '%s' kept in memory only: %v", wf, jerr)
		}
		c.history = history
	}

	if err == nil || wf.IsPersonnel() {
		c.form = form.BuildInitialState(wf, fs.Schema.Fields, c.now())
		c.errs = models.ErrorState{}
	}
	return c.status, nil
}

// Snapshot returns a deep copy of the visible state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		Screen:   c.screen.Name(),
		Workflow: c.screen.Workflow(),
		Form:     c.form.Clone(),
		Errors:   c.errs.Clone(),
		Status:   c.status,
		History:  make([]models.HistoryItem, len(c.history)),
		Loading:  c.loading,
	}
	if fs, ok := c.screen.(FormScreen); ok {
		s := fs.Schema
		s.Fields = slices.Clone(s.Fields)
		snap.Schema = &s
	}
	for i, item := range c.history {
		item.Data = item.Data.Clone()
		snap.History[i] = item
	}
	return snap
}

// History loads the stored journal of a personnel workflow without changing screens.
func (c *Controller) History(wf models.Workflow) ([]models.HistoryItem, error) {
	if !wf.IsPersonnel() {
		return nil, errors.Errorf("workflow '%s' keeps no history", wf)
	}
	return c.journal.Load(wf), nil
}

// reset shows s with an empty, idle state.
func (c *Controller) reset(s Screen) {
	c.screen = s
	c.form = models.FormState{}
	c.errs = models.ErrorState{}
	c.status = models.IdleSubmission
	c.history = []models.HistoryItem{}
}

func (c *Controller) enterForm(wf models.Workflow) {
	s := c.catalog.Resolve(wf)
	if c.autoHours(wf) {
		hours := c.catalog.HoursField()
		for i := range s.Fields {
			if s.Fields[i].ID == hours {
				s.Fields[i].ReadOnly = true
			}
		}
	}
	c.reset(FormScreen{Schema: s})
	c.form = form.BuildInitialState(wf, s.Fields, c.now())
	if wf.IsPersonnel() {
		c.history = c.journal.Load(wf)
	}
}

func (c *Controller) autoHours(wf models.Workflow) bool {
	return c.settings.AutoHours && wf == models.PersonnelHoursWorkflow
}

func (c *Controller) fillHours(wf models.Workflow) {
	// a range that yields no hours clears the field
	hours, _ := form.CalculateHours(c.form["fecha_inicio"], c.form["hora_inicio"], c.form["fecha_fin"], c.form["hora_fin"])
	field := c.catalog.HoursField()
	c.form[field] = hours
	c.errs = form.Validate(wf, field, hours, c.errs)
}
