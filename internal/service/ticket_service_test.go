package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/events"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/ml"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/observability"
)

type memoryVersionStore struct {
	versions map[string]*domain.ModelVersion
	active   string
	nextID   int
}

func newMemoryVersionStore() *memoryVersionStore {
	return &memoryVersionStore{versions: map[string]*domain.ModelVersion{}}
}

func (s *memoryVersionStore) Insert(_ context.Context, version *domain.ModelVersion) error {
	if _, ok := s.versions[version.Version]; ok {
		return fmt.Errorf("duplicate version %s", version.Version)
	}
	s.nextID++
	version.ID = fmt.Sprintf("mv-%d", s.nextID)
	clone := *version
	s.versions[version.Version] = &clone
	return nil
}

func (s *memoryVersionStore) Activate(_ context.Context, version string) error {
	target, ok := s.versions[version]
	if !ok {
		return pgx.ErrNoRows
	}
	for _, v := range s.versions {
		v.IsActive = false
	}
	target.IsActive = true
	s.active = version
	return nil
}

func (s *memoryVersionStore) GetActive(_ context.Context) (*domain.ModelVersion, error) {
	if s.active == "" {
		return nil, pgx.ErrNoRows
	}
	clone := *s.versions[s.active]
	return &clone, nil
}

func (s *memoryVersionStore) GetByVersion(_ context.Context, version string) (*domain.ModelVersion, error) {
	v, ok := s.versions[version]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *v
	return &clone, nil
}

func routingCorpus() []ml.Sample {
	hardware := []string{
		"laptop screen is cracked and flickering",
		"printer jams on every page it feeds",
		"keyboard keys are stuck and unresponsive",
		"docking station will not power the monitor",
		"hard drive makes clicking noises on boot",
		"mouse cursor freezes after replacing battery",
		"desktop fan is loud and the case is hot",
		"monitor shows no signal after cable swap",
	}
	network := []string{
		"vpn connection drops every few minutes",
		"wifi signal is weak across the whole floor",
		"cannot reach the file share over the network",
		"dns lookups time out for internal hosts",
		"ethernet port in the meeting room is dead",
		"proxy blocks access to the vendor portal",
		"vpn client refuses the corporate certificate",
		"network latency spikes during video calls",
	}
	var samples []ml.Sample
	for _, text := range hardware {
		samples = append(samples, ml.Sample{Text: text, Category: domain.CategoryHardware})
	}
	for _, text := range network {
		samples = append(samples, ml.Sample{Text: text, Category: domain.CategoryNetwork})
	}
	return samples
}

type pipelineEnv struct {
	*assignmentEnv
	service *TicketService
}

// newPipelineEnv builds the full submission pipeline against in-memory
// repositories. With trainModel set, a model trained on the routing corpus
// is registered and active; otherwise the registry is empty.
func newRoutingRegistry(t *testing.T, trainModel bool) *ml.Registry {
	t.Helper()
	registry := ml.NewRegistry(newMemoryVersionStore(), t.TempDir(), 0, zap.NewNop())
	if trainModel {
		result, err := ml.Train(routingCorpus(), ml.TrainingConfig{
			VocabularySize: 80,
			Folds:          4,
			TestFraction:   0.25,
			Seed:           42,
		})
		if err != nil {
			t.Fatalf("train: %v", err)
		}
		if _, err := registry.Register(context.Background(), result); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	return registry
}

func newPipelineEnv(t *testing.T, threshold float64, trainModel bool) *pipelineEnv {
	t.Helper()
	base := newAssignmentEnv()
	registry := newRoutingRegistry(t, trainModel)
	svc := NewTicketService(TicketDependencies{
		TicketRepo:     base.tickets,
		AssignmentRepo: base.assignments,
		Registry:       registry,
		Assigner:       base.service,
		Gate:           ConfidenceGate{Threshold: threshold},
		Dispatcher:     events.NewInMemoryDispatcher(),
		Metrics:        observability.NewMetrics("test"),
		Logger:         zap.NewNop(),
	})
	return &pipelineEnv{assignmentEnv: base, service: svc}
}

func (e *pipelineEnv) submit(t *testing.T, subject, description string) *domain.Ticket {
	t.Helper()
	ticket, err := e.service.SubmitTicket(context.Background(), TicketCreateInput{
		RequesterID: "user-1",
		Subject:     subject,
		Description: description,
	})
	if err != nil {
		t.Fatalf("SubmitTicket: %v", err)
	}
	return ticket
}

func TestSubmitTicketAutoRoutesHighConfidence(t *testing.T) {
	env := newPipelineEnv(t, 0, true)
	technician := env.addTechnician(t, "alice", []domain.Category{domain.CategoryNetwork}, 0, 5, domain.AvailabilityAvailable, domain.ExpertiseMid)

	ticket := env.submit(t, "vpn keeps dropping", "vpn connection drops every few minutes on the corporate network")

	if ticket.Status != domain.TicketStatusAssigned {
		t.Fatalf("status = %s, want ASSIGNED", ticket.Status)
	}
	if ticket.Category == nil || *ticket.Category != domain.CategoryNetwork {
		t.Fatalf("category = %v, want Network", ticket.Category)
	}
	if ticket.ConfidenceScore == nil || *ticket.ConfidenceScore <= 0 || *ticket.ConfidenceScore > 100 {
		t.Fatalf("confidence = %v", ticket.ConfidenceScore)
	}
	if ticket.FlaggedForManualReview {
		t.Fatal("auto-routed ticket must not be flagged")
	}
	if ticket.ClassifiedAt == nil || ticket.AssignedAt == nil {
		t.Fatal("stage timestamps missing")
	}
	if !strings.HasPrefix(ticket.Number, "TCK-") {
		t.Fatalf("ticket number %q", ticket.Number)
	}
	if ticket.Priority != domain.TicketPriorityMedium {
		t.Fatalf("default priority = %s, want MEDIUM", ticket.Priority)
	}

	assignment, err := env.assignments.GetActiveByTicket(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("GetActiveByTicket: %v", err)
	}
	if assignment.TechnicianID != technician.ID || assignment.AssignedBy != domain.AssignedBySystem {
		t.Fatalf("bad assignment %+v", assignment)
	}
}

func TestSubmitTicketLowConfidenceGoesToReview(t *testing.T) {
	env := newPipelineEnv(t, 101, true)
	env.addTechnician(t, "alice", []domain.Category{domain.CategoryNetwork}, 0, 5, domain.AvailabilityAvailable, domain.ExpertiseMid)

	ticket := env.submit(t, "vpn keeps dropping", "vpn connection drops every few minutes")

	if ticket.Status != domain.TicketStatusClassified {
		t.Fatalf("status = %s, want CLASSIFIED", ticket.Status)
	}
	if !ticket.FlaggedForManualReview {
		t.Fatal("ticket not flagged")
	}
	if ticket.ManualAssignmentReason == nil || !strings.Contains(*ticket.ManualAssignmentReason, "below threshold") {
		t.Fatalf("reason = %v", ticket.ManualAssignmentReason)
	}
	if ticket.Category == nil {
		t.Fatal("classification must be kept for the reviewer")
	}
	if _, err := env.assignments.GetActiveByTicket(context.Background(), ticket.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected no assignment, got %v", err)
	}
}

func TestSubmitTicketWithoutModelGoesToReview(t *testing.T) {
	env := newPipelineEnv(t, 0, false)

	ticket := env.submit(t, "vpn keeps dropping", "vpn connection drops")

	if ticket.Status != domain.TicketStatusSubmitted {
		t.Fatalf("status = %s, want SUBMITTED", ticket.Status)
	}
	if !ticket.FlaggedForManualReview {
		t.Fatal("ticket not flagged")
	}
	if ticket.ManualAssignmentReason == nil || *ticket.ManualAssignmentReason != "no active classification model" {
		t.Fatalf("reason = %v", ticket.ManualAssignmentReason)
	}
	if ticket.Category != nil || ticket.ConfidenceScore != nil {
		t.Fatal("unclassified ticket must carry no prediction")
	}
}

func TestSubmitTicketNoTechnicianGoesToReview(t *testing.T) {
	env := newPipelineEnv(t, 0, true)

	ticket := env.submit(t, "vpn keeps dropping", "vpn connection drops every few minutes")

	if ticket.Status != domain.TicketStatusClassified {
		t.Fatalf("status = %s, want CLASSIFIED", ticket.Status)
	}
	if !ticket.FlaggedForManualReview {
		t.Fatal("ticket not flagged")
	}
	if ticket.ManualAssignmentReason == nil || *ticket.ManualAssignmentReason != "no eligible technician for category" {
		t.Fatalf("reason = %v", ticket.ManualAssignmentReason)
	}
}

func TestSubmitTicketRejectsEmptyText(t *testing.T) {
	env := newPipelineEnv(t, 0, false)
	_, err := env.service.SubmitTicket(context.Background(), TicketCreateInput{
		RequesterID: "user-1",
		Subject:     "   ",
		Description: "\t\n",
	})
	if !errors.Is(err, domain.ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	if _, err := env.service.SubmitTicket(context.Background(), TicketCreateInput{
		Subject: "printer broken",
	}); err == nil {
		t.Fatal("expected error for missing requester id")
	}
}

func TestTicketLifecycleThroughClose(t *testing.T) {
	env := newPipelineEnv(t, 0, true)
	technician := env.addTechnician(t, "alice", []domain.Category{domain.CategoryNetwork}, 0, 5, domain.AvailabilityAvailable, domain.ExpertiseMid)
	ticket := env.submit(t, "vpn keeps dropping", "vpn connection drops every few minutes")
	ctx := context.Background()

	if _, err := env.service.StartProgress(ctx, ticket.ID, "tech-intruder"); err == nil {
		t.Fatal("only the assigned technician may start work")
	}

	started, err := env.service.StartProgress(ctx, ticket.ID, technician.ID)
	if err != nil {
		t.Fatalf("StartProgress: %v", err)
	}
	if started.Status != domain.TicketStatusInProgress || started.InProgressAt == nil {
		t.Fatalf("bad started ticket %+v", started)
	}

	notes := "restarted the vpn concentrator"
	resolved, err := env.service.ResolveTicket(ctx, ticket.ID, technician.ID, &notes)
	if err != nil {
		t.Fatalf("ResolveTicket: %v", err)
	}
	if resolved.Status != domain.TicketStatusResolved || resolved.ResolvedAt == nil || resolved.TimeToResolve == nil {
		t.Fatalf("bad resolved ticket %+v", resolved)
	}
	stats := env.technicians.technicians[technician.ID]
	if stats.TotalResolved != 1 {
		t.Fatalf("total resolved = %d, want 1", stats.TotalResolved)
	}
	if stats.CurrentWorkload != 0 {
		t.Fatalf("workload = %d, want 0 after resolution", stats.CurrentWorkload)
	}

	requester := events.Actor{Type: events.ActorRequester, ID: &ticket.RequesterID}
	closed, err := env.service.CloseTicket(ctx, ticket.ID, requester)
	if err != nil {
		t.Fatalf("CloseTicket: %v", err)
	}
	if closed.Status != domain.TicketStatusClosed || closed.ClosedAt == nil || closed.TimeToClose == nil {
		t.Fatalf("bad closed ticket %+v", closed)
	}

	if _, err := env.service.ResolveTicket(ctx, ticket.ID, technician.ID, nil); err == nil {
		t.Fatal("closed ticket must not resolve again")
	}
}

func TestForceCloseSkipsRemainingStages(t *testing.T) {
	env := newPipelineEnv(t, 0, false)
	ticket := env.submit(t, "duplicate request", "already handled elsewhere")

	closed, err := env.service.ForceCloseTicket(context.Background(), ticket.ID, "admin-1", "duplicate of TCK-OTHER")
	if err != nil {
		t.Fatalf("ForceCloseTicket: %v", err)
	}
	if closed.Status != domain.TicketStatusClosed || closed.ClosedAt == nil {
		t.Fatalf("bad closed ticket %+v", closed)
	}
	if closed.ClassifiedAt != nil || closed.AssignedAt != nil || closed.ResolvedAt != nil {
		t.Fatal("skipped stages must stay unstamped")
	}

	again, err := env.service.ForceCloseTicket(context.Background(), ticket.ID, "admin-1", "")
	if err != nil {
		t.Fatalf("repeat force close: %v", err)
	}
	if !again.ClosedAt.Equal(*closed.ClosedAt) {
		t.Fatal("repeat force close must not restamp")
	}
}

func TestReviewQueueDrainsOnManualAssign(t *testing.T) {
	env := newPipelineEnv(t, 0, false)
	technician := env.addTechnician(t, "alice", []domain.Category{domain.CategoryHardware}, 0, 5, domain.AvailabilityAvailable, domain.ExpertiseMid)
	ticket := env.submit(t, "laptop dead", "no power at all")
	ctx := context.Background()

	queue, err := env.service.ReviewQueue(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ReviewQueue: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != ticket.ID {
		t.Fatalf("queue = %+v", queue)
	}

	category := domain.CategoryHardware
	if _, _, err := env.assignmentEnv.service.ManualAssign(ctx, ManualAssignInput{
		TicketID:     ticket.ID,
		TechnicianID: technician.ID,
		AdminID:      "admin-1",
		Category:     &category,
	}); err != nil {
		t.Fatalf("ManualAssign: %v", err)
	}

	queue, err = env.service.ReviewQueue(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ReviewQueue: %v", err)
	}
	if len(queue) != 0 {
		t.Fatalf("queue should be empty, has %d", len(queue))
	}
}

func TestSubmitTicketLostAssignmentRaceGoesToReview(t *testing.T) {
	base := newAssignmentEnv()
	base.addTechnician(t, "alice", []domain.Category{domain.CategoryNetwork}, 0, 5, domain.AvailabilityAvailable, domain.ExpertiseMid)
	assigner := NewAssignmentService(AssignmentDependencies{
		TicketRepo:     base.tickets,
		TechnicianRepo: base.technicians,
		AssignmentRepo: &contestedAssignmentRepo{base.assignments},
		Dispatcher:     events.NewInMemoryDispatcher(),
		Metrics:        observability.NewMetrics("test"),
		Logger:         zap.NewNop(),
	})
	svc := NewTicketService(TicketDependencies{
		TicketRepo:     base.tickets,
		AssignmentRepo: base.assignments,
		Registry:       newRoutingRegistry(t, true),
		Assigner:       assigner,
		Gate:           ConfidenceGate{Threshold: 0},
		Dispatcher:     events.NewInMemoryDispatcher(),
		Metrics:        observability.NewMetrics("test"),
		Logger:         zap.NewNop(),
	})

	ticket, err := svc.SubmitTicket(context.Background(), TicketCreateInput{
		RequesterID: "user-1",
		Subject:     "vpn keeps dropping",
		Description: "vpn connection drops every few minutes on the corporate network",
	})
	if err != nil {
		t.Fatalf("SubmitTicket: %v", err)
	}
	if ticket.Status != domain.TicketStatusClassified {
		t.Fatalf("status = %s, want CLASSIFIED", ticket.Status)
	}
	if !ticket.FlaggedForManualReview {
		t.Fatal("ticket not flagged")
	}
	if ticket.AssignedAt != nil || ticket.TimeToAssign != nil {
		t.Fatal("assignment stamps persisted without an assignment")
	}

	stored, err := base.tickets.GetByID(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != domain.TicketStatusClassified || !stored.FlaggedForManualReview {
		t.Fatalf("persisted status = %s flagged = %v, want CLASSIFIED and flagged", stored.Status, stored.FlaggedForManualReview)
	}
	if _, err := base.assignments.GetActiveByTicket(context.Background(), ticket.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected no active assignment, got %v", err)
	}

	queue, err := svc.ReviewQueue(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("ReviewQueue: %v", err)
	}
	found := false
	for _, queued := range queue {
		if queued.ID == ticket.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("ticket missing from review queue")
	}
}
