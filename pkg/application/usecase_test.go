package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/artem13815/jobboard/pkg/apperr"
	"github.com/artem13815/jobboard/pkg/application"
	"github.com/artem13815/jobboard/pkg/auth"
	"github.com/artem13815/jobboard/pkg/authz"
	"github.com/artem13815/jobboard/pkg/job"
	"github.com/artem13815/jobboard/pkg/notify"
	"github.com/artem13815/jobboard/pkg/repository/memory"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []notify.Notification
}

// DispatchFunc builds inline so tests can assert on the result right away.
func (d *recordingDispatcher) DispatchFunc(ctx context.Context, _ notify.Template, build notify.Builder) {
	n, err := build(ctx)
	if err != nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
}

func (d *recordingDispatcher) templates() []notify.Template {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]notify.Template, 0, len(d.sent))
	for _, n := range d.sent {
		out = append(out, n.Template)
	}
	return out
}

type failingNotifier struct{ calls int }

func (f *failingNotifier) Notify(context.Context, notify.Notification) error {
	f.calls++
	return errors.New("mail server unavailable")
}

// blockingContacts holds every lookup until release is closed.
type blockingContacts struct {
	next    application.Contacts
	release chan struct{}
}

func (c *blockingContacts) GetByID(ctx context.Context, id uuid.UUID) (auth.Actor, error) {
	<-c.release
	return c.next.GetByID(ctx, id)
}

type capturingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (c *capturingNotifier) Notify(_ context.Context, n notify.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
	return nil
}

func (c *capturingNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

type staticResumes map[uuid.UUID]string

func (r staticResumes) ResumeLocator(_ context.Context, id uuid.UUID) (string, error) {
	return r[id], nil
}

type fixture struct {
	store     *memory.Store
	svc       application.UseCase
	notes     *recordingDispatcher
	resumes   staticResumes
	employer  authz.Principal
	applicant authz.Principal
	job       job.Posting
}

func newFixture(t *testing.T, dispatcher application.Dispatcher) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	f := &fixture{store: store, resumes: staticResumes{}}

	f.employer = addActor(t, store, auth.RoleEmployer, "e@example.com")
	f.applicant = addActor(t, store, auth.RoleApplicant, "x@example.com")
	f.resumes[f.applicant.ID] = "file://resumes/x.pdf"

	f.job = job.Posting{
		ID:             uuid.New(),
		OwnerID:        f.employer.ID,
		CompanyName:    "Acme",
		Title:          "Go developer",
		Description:    "Services",
		EmploymentType: job.FullTime,
		Experience:     job.Mid,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, store.Jobs().Create(ctx, f.job))

	if dispatcher == nil {
		f.notes = &recordingDispatcher{}
		dispatcher = f.notes
	}
	f.svc = application.NewService(application.Deps{
		Repo:     store.Applications(),
		Jobs:     store.Jobs(),
		Resumes:  f.resumes,
		Contacts: store.Actors(),
		Notifier: dispatcher,
		Logger:   zap.NewNop(),
	})
	return f
}

func addActor(t *testing.T, store *memory.Store, role auth.Role, email string) authz.Principal {
	t.Helper()
	a := auth.Actor{ID: uuid.New(), Email: email, Name: email, Role: role}
	require.NoError(t, store.Actors().Create(context.Background(), a))
	return authz.Principal{ID: a.ID, Role: role}
}

func (f *fixture) apply(t *testing.T, who authz.Principal) application.Application {
	t.Helper()
	app, err := f.svc.Apply(context.Background(), who, application.ApplyInput{JobID: f.job.ID, CoverLetter: "Hello"})
	require.NoError(t, err)
	return app
}

func (f *fixture) setStatus(t *testing.T, id uuid.UUID, s application.Status) {
	t.Helper()
	_, err := f.svc.UpdateStatus(context.Background(), f.employer, id, s, nil)
	require.NoError(t, err)
}

func TestApply_ScenarioA(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	app := f.apply(t, f.applicant)
	assert.Equal(t, application.StatusApplied, app.Status)
	assert.Equal(t, f.employer.ID, app.EmployerID)
	assert.Equal(t, "file://resumes/x.pdf", app.ResumeLocator)

	posting, err := f.store.Jobs().GetByID(ctx, f.job.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, posting.Applications)

	_, err = f.svc.Apply(ctx, f.applicant, application.ApplyInput{JobID: f.job.ID, CoverLetter: "Hello again"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	posting, err = f.store.Jobs().GetByID(ctx, f.job.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, posting.Applications)
}

func TestApply_Validation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	long := make([]byte, 5001)
	for i := range long {
		long[i] = 'a'
	}

	cases := map[string]struct {
		who  authz.Principal
		in   application.ApplyInput
		kind apperr.Kind
	}{
		"empty cover letter":    {f.applicant, application.ApplyInput{JobID: f.job.ID, CoverLetter: "   "}, apperr.KindValidation},
		"cover letter too long": {f.applicant, application.ApplyInput{JobID: f.job.ID, CoverLetter: string(long)}, apperr.KindValidation},
		"unknown job":           {f.applicant, application.ApplyInput{JobID: uuid.New(), CoverLetter: "Hi"}, apperr.KindNotFound},
		"employer cannot apply": {f.employer, application.ApplyInput{JobID: f.job.ID, CoverLetter: "Hi"}, apperr.KindForbidden},
		"anonymous":             {authz.Principal{}, application.ApplyInput{JobID: f.job.ID, CoverLetter: "Hi"}, apperr.KindUnauthorized},
		"bad availability":      {f.applicant, application.ApplyInput{JobID: f.job.ID, CoverLetter: "Hi", Availability: "someday"}, apperr.KindValidation},
		"bad salary": {f.applicant, application.ApplyInput{
			JobID: f.job.ID, CoverLetter: "Hi", ExpectedSalary: &application.Money{Amount: -1},
		}, apperr.KindValidation},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Apply(ctx, tc.who, tc.in)
			assert.Equal(t, tc.kind, apperr.KindOf(err))
		})
	}
}

func TestApply_RequiresResume(t *testing.T) {
	f := newFixture(t, nil)
	other := addActor(t, f.store, auth.RoleApplicant, "y@example.com")

	_, err := f.svc.Apply(context.Background(), other, application.ApplyInput{JobID: f.job.ID, CoverLetter: "Hi"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	f.resumes[other.ID] = "file://resumes/y.pdf"
	app, err := f.svc.Apply(context.Background(), other, application.ApplyInput{
		JobID: f.job.ID, CoverLetter: "Hi", ResumeLocator: "file://resumes/y.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "file://resumes/y.pdf", app.ResumeLocator)
}

func TestApply_RejectsForeignResume(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	other := addActor(t, f.store, auth.RoleApplicant, "y@example.com")
	f.resumes[other.ID] = "file://resumes/y.pdf"

	cases := map[string]string{
		"another applicant's resume": "file://resumes/x.pdf",
		"malformed locator":          "not-a-locator",
		"guessed locator":            "file://resumes/other.pdf",
	}
	for name, locator := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Apply(ctx, other, application.ApplyInput{JobID: f.job.ID, CoverLetter: "Hi", ResumeLocator: locator})
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}

	existing, err := f.svc.CheckExisting(ctx, other, f.job.ID)
	require.NoError(t, err)
	assert.False(t, existing.Exists)
}

func TestApply_InactiveJob(t *testing.T) {
	f := newFixture(t, nil)
	closed := f.job
	closed.Active = false
	require.NoError(t, f.store.Jobs().Update(context.Background(), closed))

	_, err := f.svc.Apply(context.Background(), f.applicant, application.ApplyInput{JobID: f.job.ID, CoverLetter: "Hi"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestApply_ConcurrentDuplicates(t *testing.T) {
	f := newFixture(t, nil)
	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Apply(context.Background(), f.applicant, application.ApplyInput{JobID: f.job.ID, CoverLetter: "Hello"})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	}
	assert.Equal(t, 1, succeeded)
}

func TestUpdateStatus_ScenarioB(t *testing.T) {
	f := newFixture(t, nil)
	app := f.apply(t, f.applicant)

	notes := "strong portfolio"
	got, err := f.svc.UpdateStatus(context.Background(), f.employer, app.ID, application.StatusShortlisted, &notes)
	require.NoError(t, err)
	assert.Equal(t, application.StatusShortlisted, got.Status)
	assert.Equal(t, "strong portfolio", got.Notes.Employer)
	assert.Equal(t, []notify.Template{notify.TemplateShortlisted}, f.notes.templates())
	assert.Equal(t, "x@example.com", f.notes.sent[0].Recipient)
}

func TestUpdateStatus_NotifierFailureDoesNotLeak(t *testing.T) {
	failing := &failingNotifier{}
	dispatcher := notify.NewDispatcher(failing, time.Second, zap.NewNop())
	f := newFixture(t, dispatcher)
	app := f.apply(t, f.applicant)

	got, err := f.svc.UpdateStatus(context.Background(), f.employer, app.ID, application.StatusShortlisted, nil)
	dispatcher.Wait()

	require.NoError(t, err)
	assert.Equal(t, application.StatusShortlisted, got.Status)
	assert.Equal(t, 1, failing.calls)

	stored, err := f.store.Applications().GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, application.StatusShortlisted, stored.Status)
}

func TestUpdateStatus_WithoutContactsSkipsNotification(t *testing.T) {
	f := newFixture(t, nil)
	app := f.apply(t, f.applicant)
	svc := application.NewService(application.Deps{
		Repo:     f.store.Applications(),
		Jobs:     f.store.Jobs(),
		Resumes:  f.resumes,
		Notifier: f.notes,
		Logger:   zap.NewNop(),
	})

	got, err := svc.UpdateStatus(context.Background(), f.employer, app.ID, application.StatusShortlisted, nil)
	require.NoError(t, err)
	assert.Equal(t, application.StatusShortlisted, got.Status)
	assert.Empty(t, f.notes.templates())
}

func TestUpdateStatus_DoesNotWaitForRecipientLookup(t *testing.T) {
	f := newFixture(t, nil)
	app := f.apply(t, f.applicant)

	sink := &capturingNotifier{}
	dispatcher := notify.NewDispatcher(sink, 5*time.Second, zap.NewNop())
	contacts := &blockingContacts{next: f.store.Actors(), release: make(chan struct{})}
	svc := application.NewService(application.Deps{
		Repo:     f.store.Applications(),
		Jobs:     f.store.Jobs(),
		Resumes:  f.resumes,
		Contacts: contacts,
		Notifier: dispatcher,
		Logger:   zap.NewNop(),
	})

	done := make(chan error, 1)
	go func() {
		_, err := svc.UpdateStatus(context.Background(), f.employer, app.ID, application.StatusRejected, nil)
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		close(contacts.release)
		t.Fatal("status change waited for the recipient lookup")
	}
	assert.Equal(t, 0, sink.count())

	close(contacts.release)
	dispatcher.Wait()
	require.Equal(t, 1, sink.count())
	assert.Equal(t, notify.TemplateRejected, sink.sent[0].Template)
	assert.Equal(t, "x@example.com", sink.sent[0].Recipient)
	assert.Equal(t, "Go developer", sink.sent[0].Data["jobTitle"])
}

func TestUpdateStatus_Templates(t *testing.T) {
	f := newFixture(t, nil)
	app := f.apply(t, f.applicant)

	f.setStatus(t, app.ID, application.StatusReviewing)
	f.setStatus(t, app.ID, application.StatusRejected)
	assert.Equal(t, []notify.Template{notify.TemplateStatusChanged, notify.TemplateRejected}, f.notes.templates())
}

func TestUpdateStatus_ScenarioD(t *testing.T) {
	f := newFixture(t, nil)
	app := f.apply(t, f.applicant)
	other := addActor(t, f.store, auth.RoleEmployer, "f@example.com")

	_, err := f.svc.UpdateStatus(context.Background(), other, app.ID, application.StatusShortlisted, nil)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.svc.UpdateStatus(context.Background(), f.applicant, app.ID, application.StatusShortlisted, nil)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.svc.UpdateStatus(context.Background(), other, uuid.New(), application.StatusShortlisted, nil)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Empty(t, f.notes.templates())
}

func TestUpdateStatus_UsesStoredEmployer(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	// An application whose stored employer is no longer the posting's owner.
	legacy := addActor(t, f.store, auth.RoleEmployer, "legacy@example.com")
	app, err := f.store.Applications().Insert(ctx, application.Application{
		ID:          uuid.New(),
		JobID:       f.job.ID,
		ApplicantID: f.applicant.ID,
		EmployerID:  legacy.ID,
		Status:      application.StatusApplied,
		AppliedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, f.employer, app.ID, application.StatusReviewing, nil)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.svc.ScheduleInterview(ctx, f.employer, app.ID, application.InterviewInput{
		Date: time.Now().Add(time.Hour), Modality: application.ModalityPhone,
	})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	got, err := f.svc.UpdateStatus(ctx, legacy, app.ID, application.StatusReviewing, nil)
	require.NoError(t, err)
	assert.Equal(t, application.StatusReviewing, got.Status)
}

func TestUpdateStatus_Rules(t *testing.T) {
	f := newFixture(t, nil)
	app := f.apply(t, f.applicant)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, f.employer, app.ID, application.Status("hired"), nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.UpdateStatus(ctx, f.employer, app.ID, application.StatusWithdrawn, nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	// Skipping stages is allowed.
	f.setStatus(t, app.ID, application.StatusOffered)

	_, err = f.svc.UpdateStatus(ctx, f.employer, app.ID, application.StatusReviewing, nil)
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
}

func TestWithdraw_ScenarioC(t *testing.T) {
	f := newFixture(t, nil)
	app := f.apply(t, f.applicant)
	f.setStatus(t, app.ID, application.StatusShortlisted)

	_, err := f.svc.Withdraw(context.Background(), f.applicant, app.ID)
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))

	stored, err := f.store.Applications().GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, application.StatusShortlisted, stored.Status)
}

func TestWithdraw_OnlyFromAppliedOrReviewing(t *testing.T) {
	for _, s := range application.Statuses {
		t.Run(string(s), func(t *testing.T) {
			f := newFixture(t, nil)
			app := f.apply(t, f.applicant)
			if s != application.StatusApplied && s != application.StatusWithdrawn {
				f.setStatus(t, app.ID, s)
			}
			if s == application.StatusWithdrawn {
				_, err := f.svc.Withdraw(context.Background(), f.applicant, app.ID)
				require.NoError(t, err)
			}

			got, err := f.svc.Withdraw(context.Background(), f.applicant, app.ID)
			if s == application.StatusApplied || s == application.StatusReviewing {
				require.NoError(t, err)
				assert.Equal(t, application.StatusWithdrawn, got.Status)
				return
			}
			assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
			stored, err := f.store.Applications().GetByID(context.Background(), app.ID)
			require.NoError(t, err)
			assert.Equal(t, s, stored.Status)
		})
	}
}

func TestWithdraw_OnlyByApplicant(t *testing.T) {
	f := newFixture(t, nil)
	app := f.apply(t, f.applicant)
	other := addActor(t, f.store, auth.RoleApplicant, "z@example.com")

	_, err := f.svc.Withdraw(context.Background(), other, app.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.svc.Withdraw(context.Background(), f.employer, app.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestWithdrawn_IsTerminal(t *testing.T) {
	f := newFixture(t, nil)
	app := f.apply(t, f.applicant)
	_, err := f.svc.Withdraw(context.Background(), f.applicant, app.ID)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), f.employer, app.ID, application.StatusReviewing, nil)
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))

	_, err = f.svc.ScheduleInterview(context.Background(), f.employer, app.ID, application.InterviewInput{
		Date: time.Now().Add(48 * time.Hour), Modality: application.ModalityPhone,
	})
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
}

func TestScheduleInterview(t *testing.T) {
	f := newFixture(t, nil)
	app := f.apply(t, f.applicant)
	ctx := context.Background()
	when := time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC)

	_, err := f.svc.ScheduleInterview(ctx, f.employer, app.ID, application.InterviewInput{Date: when, Modality: application.ModalityVideo})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "video needs a link")

	_, err = f.svc.ScheduleInterview(ctx, f.employer, app.ID, application.InterviewInput{Date: when, Modality: application.ModalityInPerson})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "in-person needs a location")

	_, err = f.svc.ScheduleInterview(ctx, f.employer, app.ID, application.InterviewInput{Modality: application.ModalityPhone})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "date required")

	_, err = f.svc.ScheduleInterview(ctx, f.employer, app.ID, application.InterviewInput{Date: when, Modality: "carrier-pigeon"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	other := addActor(t, f.store, auth.RoleEmployer, "f@example.com")
	_, err = f.svc.ScheduleInterview(ctx, other, app.ID, application.InterviewInput{Date: when, Modality: application.ModalityPhone})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	got, err := f.svc.ScheduleInterview(ctx, f.employer, app.ID, application.InterviewInput{
		Date: when, Modality: application.ModalityVideo, Link: "https://meet.example.com/abc",
	})
	require.NoError(t, err)
	assert.Equal(t, application.StatusInterviewed, got.Status)
	require.NotNil(t, got.Interview)
	assert.Equal(t, application.InterviewScheduled, got.Interview.Status)
	assert.True(t, when.Equal(got.Interview.Date))
	assert.Equal(t, []notify.Template{notify.TemplateInterviewScheduled}, f.notes.templates())
	assert.Equal(t, "https://meet.example.com/abc", f.notes.sent[0].Data["link"])
}

func TestCheckExisting(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res, err := f.svc.CheckExisting(ctx, f.applicant, f.job.ID)
	require.NoError(t, err)
	assert.False(t, res.Exists)
	assert.Nil(t, res.Application)

	app := f.apply(t, f.applicant)
	res, err = f.svc.CheckExisting(ctx, f.applicant, f.job.ID)
	require.NoError(t, err)
	assert.True(t, res.Exists)
	assert.Equal(t, app.ID, res.Application.ID)

	_, err = f.svc.CheckExisting(ctx, f.employer, f.job.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestGet_ParticipantsOnly(t *testing.T) {
	f := newFixture(t, nil)
	app := f.apply(t, f.applicant)
	notes := "internal remark"
	_, err := f.svc.UpdateStatus(context.Background(), f.employer, app.ID, application.StatusReviewing, &notes)
	require.NoError(t, err)

	got, err := f.svc.Get(context.Background(), f.employer, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "internal remark", got.Notes.Employer)

	got, err = f.svc.Get(context.Background(), f.applicant, app.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Notes.Employer)

	stranger := addActor(t, f.store, auth.RoleApplicant, "s@example.com")
	_, err = f.svc.Get(context.Background(), stranger, app.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.svc.Get(context.Background(), stranger, uuid.New())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestList_StatsMatchUnfilteredListing(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	second := job.Posting{
		ID: uuid.New(), OwnerID: f.employer.ID, Title: "SRE", Description: "Ops",
		EmploymentType: job.FullTime, Experience: job.Senior, Active: true, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.store.Jobs().Create(ctx, second))

	statuses := []application.Status{
		application.StatusApplied, application.StatusReviewing, application.StatusShortlisted,
		application.StatusRejected, application.StatusOffered,
	}
	for i, s := range statuses {
		who := addActor(t, f.store, auth.RoleApplicant, uuid.NewString()+"@example.com")
		target := f.job.ID
		if i%2 == 1 {
			target = second.ID
		}
		f.resumes[who.ID] = "file://resumes/" + who.ID.String() + ".pdf"
		app, err := f.svc.Apply(ctx, who, application.ApplyInput{JobID: target, CoverLetter: "Hi"})
		require.NoError(t, err)
		if s != application.StatusApplied {
			f.setStatus(t, app.ID, s)
		}
	}

	all, err := f.svc.ListForEmployer(ctx, f.employer, nil, nil, 200, 0)
	require.NoError(t, err)
	st := all.Stats
	sum := st.Applied + st.Reviewing + st.Shortlisted + st.Interviewed + st.Offered + st.Rejected + st.Withdrawn
	assert.Equal(t, st.Total, sum)
	assert.Equal(t, st.Total, all.Total)
	assert.Len(t, all.Items, all.Total)
	assert.Equal(t, 5, all.Total)

	for i := 1; i < len(all.Items); i++ {
		assert.False(t, all.Items[i-1].AppliedAt.Before(all.Items[i].AppliedAt), "newest first")
	}

	rejected := application.StatusRejected
	filtered, err := f.svc.ListForEmployer(ctx, f.employer, &rejected, nil, 200, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, filtered.Total)
	assert.Equal(t, st, filtered.Stats, "status filter does not change the scope of stats")

	jobID := second.ID
	byJob, err := f.svc.ListForEmployer(ctx, f.employer, nil, &jobID, 200, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, byJob.Total)
	assert.Equal(t, byJob.Total, byJob.Stats.Total)

	other := addActor(t, f.store, auth.RoleEmployer, "f@example.com")
	none, err := f.svc.ListForEmployer(ctx, other, nil, nil, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, none.Total)
	assert.Empty(t, none.Items)
}

func TestList_ConsistentUnderConcurrentApplies(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	const n = 30
	applicants := make([]authz.Principal, n)
	for i := range applicants {
		applicants[i] = addActor(t, f.store, auth.RoleApplicant, uuid.NewString()+"@example.com")
		f.resumes[applicants[i].ID] = "file://resumes/" + applicants[i].ID.String() + ".pdf"
	}

	var wg sync.WaitGroup
	for _, who := range applicants {
		wg.Add(1)
		go func(who authz.Principal) {
			defer wg.Done()
			_, err := f.svc.Apply(ctx, who, application.ApplyInput{JobID: f.job.ID, CoverLetter: "Hi"})
			assert.NoError(t, err)
		}(who)
	}

	stop := make(chan struct{})
	reads := make(chan error, 1)
	go func() {
		defer close(reads)
		for {
			select {
			case <-stop:
				return
			default:
			}
			res, err := f.svc.ListForEmployer(ctx, f.employer, nil, nil, 200, 0)
			if err != nil {
				reads <- err
				return
			}
			st := res.Stats
			sum := st.Applied + st.Reviewing + st.Shortlisted + st.Interviewed + st.Offered + st.Rejected + st.Withdrawn
			if st.Total != res.Total || sum != st.Total || len(res.Items) != res.Total {
				reads <- fmt.Errorf("inconsistent listing: total=%d stats=%d sum=%d items=%d", res.Total, st.Total, sum, len(res.Items))
				return
			}
		}
	}()

	wg.Wait()
	close(stop)
	for err := range reads {
		require.NoError(t, err)
	}

	final, err := f.svc.ListForEmployer(ctx, f.employer, nil, nil, 200, 0)
	require.NoError(t, err)
	assert.Equal(t, n, final.Total)
	assert.Equal(t, n, final.Stats.Applied)
}

func TestListForApplicant(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	app := f.apply(t, f.applicant)
	_, err := f.svc.Withdraw(ctx, f.applicant, app.ID)
	require.NoError(t, err)

	res, err := f.svc.ListForApplicant(ctx, f.applicant, nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.Stats.Withdrawn)
	assert.Equal(t, 1, res.Stats.Total)

	bad := application.Status("nope")
	_, err = f.svc.ListForApplicant(ctx, f.applicant, &bad, 0, 0)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.ListForApplicant(ctx, f.employer, nil, 0, 0)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

type mapFiles map[string][]byte

func (m mapFiles) Retrieve(_ context.Context, locator string) ([]byte, error) {
	data, ok := m[locator]
	if !ok {
		return nil, apperr.NotFound("file not found")
	}
	return data, nil
}

func TestOpenResume_ParticipantsOnly(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	svc := application.NewService(application.Deps{
		Repo:     f.store.Applications(),
		Jobs:     f.store.Jobs(),
		Resumes:  f.resumes,
		Files:    mapFiles{"file://resumes/x.pdf": []byte("%PDF-1.4")},
		Contacts: f.store.Actors(),
		Notifier: f.notes,
		Logger:   zap.NewNop(),
	})
	app, err := svc.Apply(ctx, f.applicant, application.ApplyInput{JobID: f.job.ID, CoverLetter: "Hello"})
	require.NoError(t, err)

	for _, who := range []authz.Principal{f.applicant, f.employer} {
		r, err := svc.OpenResume(ctx, who, app.ID)
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.4"), r.Data)
		assert.Equal(t, "file://resumes/x.pdf", r.Locator)
	}

	stranger := addActor(t, f.store, auth.RoleEmployer, "other@example.com")
	_, err = svc.OpenResume(ctx, stranger, app.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = svc.OpenResume(ctx, f.applicant, uuid.New())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	// the fixture service has no file reader configured
	_, err = f.svc.OpenResume(ctx, f.applicant, app.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
