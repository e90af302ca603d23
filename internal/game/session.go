package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Runbinlin/jbn-daily/internal/catalog"
	"github.com/Runbinlin/jbn-daily/internal/config"
	"github.com/Runbinlin/jbn-daily/internal/event"
	"github.com/Runbinlin/jbn-daily/internal/npc"
	"github.com/Runbinlin/jbn-daily/internal/player"
	"github.com/Runbinlin/jbn-daily/internal/rng"
)

// Phase is the externally visible state of a session. The consuming layer
// drives transitions; the session enforces which ones are legal.
type Phase string

const (
	PhaseEvent     Phase = "event"
	PhaseWeekly    Phase = "weekly_event"
	PhasePromotion Phase = "promotion"
	PhaseGameOver  Phase = "game_over"
)

// Guard violations. All of them leave the session unmodified.
var (
	ErrGameOver           = errors.New("game: session is over")
	ErrAlreadyChosen      = errors.New("game: already chosen today")
	ErrNoWeeklyEvent      = errors.New("game: no weekly event today")
	ErrInvalidOption      = errors.New("game: option position out of range")
	ErrWeeklyPending      = errors.New("game: weekly event still pending")
	ErrPromotionPending   = errors.New("game: promotion decision pending")
	ErrNoPendingPromotion = errors.New("game: no promotion pending")
	ErrNoActivePrompt     = errors.New("game: no active npc prompt")
)

// Options configures a new session. Zero values fall back to the canonical
// balance, OS-entropy randomness, wall-clock time and a no-op logger.
type Options struct {
	Catalog *catalog.Catalog
	Balance config.Balance
	RNG     rng.Source
	Clock   Clock
	Logger  *zerolog.Logger
}

// Session owns one run: the player record, today's drawn content, the
// day/week counters and the phase machine. It is single-threaded by design;
// callers that share it across goroutines must synchronize around it.
type Session struct {
	Player  *player.Player
	Balance config.Balance

	Day  int
	Week int

	Today        event.Event
	WeeklyEvent  *event.Event
	DailyChosen  bool
	WeeklyChosen bool

	TodayNPCs []npc.Encounter
	ActiveNPC *npc.ActivePrompt

	Phase Phase

	cat       *catalog.Catalog
	src       rng.Source
	clock     Clock
	startedAt time.Time
	log       zerolog.Logger
}

// NewSession starts a run on day 1 of week 1: draws and shuffles the first
// daily event, leaves the weekly slot empty, and rolls the first NPC subset.
func NewSession(name string, opts Options) (*Session, error) {
	if name == "" {
		return nil, errors.New("game: player name is required")
	}
	if opts.Catalog == nil {
		return nil, errors.New("game: catalog is required")
	}
	opts.Balance.ApplyDefaults()
	if opts.RNG == nil {
		opts.RNG = rng.New()
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}

	s := &Session{
		Player:    player.New(name),
		Balance:   opts.Balance,
		Day:       1,
		Week:      1,
		Phase:     PhaseEvent,
		cat:       opts.Catalog,
		src:       opts.RNG,
		clock:     opts.Clock,
		startedAt: opts.Clock.Now(),
		log:       *opts.Logger,
	}
	s.Today = s.cat.DrawDaily(s.src)
	s.TodayNPCs = s.cat.DailyNPCs(s.src, s.Balance.MaxNPCsPerDay)

	s.log.Info().Str("player", name).Msg("session started")
	return s, nil
}

// ChoiceResult reports an applied event choice.
type ChoiceResult struct {
	Option        event.Option `json:"option"`
	Story         string       `json:"story"`
	WeeklyPending bool         `json:"weekly_pending"`
}

// ApplyDailyChoice resolves today's daily event at a 1-based display
// position. Once per day; a pending weekly event becomes the next phase.
func (s *Session) ApplyDailyChoice(position int) (ChoiceResult, error) {
	if s.Phase == PhaseGameOver {
		return ChoiceResult{}, ErrGameOver
	}
	if s.DailyChosen {
		return ChoiceResult{}, ErrAlreadyChosen
	}
	opt, ok := s.Today.PresentedAt(position)
	if !ok {
		return ChoiceResult{}, ErrInvalidOption
	}

	s.Player.GainReward(opt.Skill, opt.Stress)
	s.Player.AddHistory(
		fmt.Sprintf("%s - %s (%s)", s.Today.Name, opt.Label, opt.Story),
		opt.Skill, opt.Stress, s.Balance.HistoryCap,
	)
	s.DailyChosen = true

	res := ChoiceResult{Option: opt, Story: opt.Story}
	if s.WeeklyEvent != nil && !s.WeeklyChosen {
		s.Phase = PhaseWeekly
		res.WeeklyPending = true
	}
	s.log.Debug().Str("event", s.Today.Name).Int("origin", int(opt.Origin)).Msg("daily choice applied")
	return res, nil
}

// ApplyWeeklyChoice resolves the pending weekly event; the slot clears for
// the remainder of the day.
func (s *Session) ApplyWeeklyChoice(position int) (ChoiceResult, error) {
	if s.Phase == PhaseGameOver {
		return ChoiceResult{}, ErrGameOver
	}
	if s.WeeklyEvent == nil {
		return ChoiceResult{}, ErrNoWeeklyEvent
	}
	if s.WeeklyChosen {
		return ChoiceResult{}, ErrAlreadyChosen
	}
	opt, ok := s.WeeklyEvent.PresentedAt(position)
	if !ok {
		return ChoiceResult{}, ErrInvalidOption
	}

	s.Player.GainReward(opt.Skill, opt.Stress)
	s.Player.AddHistory(
		fmt.Sprintf("[weekly] %s - %s (%s)", s.WeeklyEvent.Name, opt.Label, opt.Story),
		opt.Skill, opt.Stress, s.Balance.HistoryCap,
	)
	s.WeeklyChosen = true
	s.WeeklyEvent = nil
	s.Phase = PhaseEvent

	s.log.Debug().Int("origin", int(opt.Origin)).Msg("weekly choice applied")
	return ChoiceResult{Option: opt, Story: opt.Story}, nil
}

// ProbeNPC opens the two-step interaction with today's NPC at a 0-based
// subset index. Probing never grants rewards; it only records the active
// prompt. Advisory conditions come back as the message with no error.
func (s *Session) ProbeNPC(index int) (string, error) {
	if !s.Player.Alive {
		s.ActiveNPC = nil
		return "You no longer work here. The NPCs can't hear you.", nil
	}
	if index < 0 || index >= len(s.TodayNPCs) {
		return "", ErrInvalidOption
	}
	enc := &s.TodayNPCs[index]
	if enc.Interacted {
		s.ActiveNPC = nil
		return fmt.Sprintf("%s has already been dealt with today.", enc.Name), nil
	}

	prompt := enc.RandomPrompt(s.src)
	s.ActiveNPC = &npc.ActivePrompt{Index: index, Prompt: prompt}
	return fmt.Sprintf(
		"%s · %s: %s\n\nAccept: %s\nReject: %s",
		enc.Name, enc.Model, prompt, enc.Accept.Summary, enc.Reject.Summary,
	), nil
}

// ResolveNPC commits the active prompt with an accept/reject decision,
// granting the chosen reward at most once per NPC per day.
func (s *Session) ResolveNPC(decision npc.Decision) (string, error) {
	if !s.Player.Alive {
		s.ActiveNPC = nil
		return "You no longer work here. The NPCs can't hear you.", nil
	}
	if s.ActiveNPC == nil {
		return "", ErrNoActivePrompt
	}
	enc := &s.TodayNPCs[s.ActiveNPC.Index]
	if enc.Interacted {
		s.ActiveNPC = nil
		return fmt.Sprintf("%s has already wrapped up for today.", enc.Name), nil
	}

	opt := enc.Reject
	if decision == npc.Accept {
		opt = enc.Accept
	}
	enc.Interacted = true
	s.Player.GainReward(opt.Skill, opt.Stress)
	s.Player.AddHistory(
		fmt.Sprintf("[npc] %s - %s (%s)", enc.Name, opt.Detail, decision),
		opt.Skill, opt.Stress, s.Balance.HistoryCap,
	)
	s.ActiveNPC = nil

	s.log.Debug().Str("npc", enc.Name).Str("decision", decision.String()).Msg("npc resolved")
	return fmt.Sprintf("%s: %s | skill %+d | stress %+d", enc.Name, opt.Summary, opt.Skill, opt.Stress), nil
}

// DeathReport summarizes a terminal run.
type DeathReport struct {
	Message    string `json:"message"`
	DaysPlayed uint   `json:"days_played"`
	Skill      int    `json:"skill"`
	Stress     int    `json:"stress"`
	TierName   string `json:"tier"`
	Elapsed    string `json:"elapsed"`
}

// PromotionOffer is the pending decision surfaced when the player qualifies
// at day-advance time.
type PromotionOffer struct {
	FailurePercent int `json:"failure_percent"`
}

// AdvanceResult reports what the day boundary produced.
type AdvanceResult struct {
	Phase     Phase           `json:"phase"`
	Death     *DeathReport    `json:"death,omitempty"`
	Promotion *PromotionOffer `json:"promotion,omitempty"`
}

// AdvanceDay runs the daily death check, then either ends the run, parks on
// a pending promotion decision, or rotates to the next day. Legal only from
// the event phase: a pending weekly event or promotion must be resolved
// first.
func (s *Session) AdvanceDay() (AdvanceResult, error) {
	switch s.Phase {
	case PhaseGameOver:
		return AdvanceResult{}, ErrGameOver
	case PhaseWeekly:
		return AdvanceResult{}, ErrWeeklyPending
	case PhasePromotion:
		return AdvanceResult{}, ErrPromotionPending
	}

	s.Player.CheckDeath(s.src, s.Balance)
	if !s.Player.Alive {
		s.Phase = PhaseGameOver
		report := &DeathReport{
			Message:    s.Player.DeathMessage(),
			DaysPlayed: s.Player.DaysPlayed,
			Skill:      s.Player.Skill,
			Stress:     s.Player.Stress,
			TierName:   s.Player.Tier().String(),
			Elapsed:    s.FormatElapsed(),
		}
		s.log.Info().Uint("days", report.DaysPlayed).Str("cause", report.Message).Msg("run ended")
		return AdvanceResult{Phase: s.Phase, Death: report}, nil
	}

	if s.Player.CanPromote(s.Balance) {
		s.Phase = PhasePromotion
		chance := s.Balance.PromotionFailureChance(s.Player.PromotionAttempts)
		return AdvanceResult{
			Phase:     s.Phase,
			Promotion: &PromotionOffer{FailurePercent: int(chance*100 + 0.5)},
		}, nil
	}

	s.rotateDay()
	return AdvanceResult{Phase: s.Phase}, nil
}

// PromotionOutcome reports a resolved promotion decision.
type PromotionOutcome struct {
	Attempted bool   `json:"attempted"`
	Success   bool   `json:"success"`
	LostSkill int    `json:"lost_skill"`
	TierName  string `json:"tier,omitempty"`
	Message   string `json:"message"`
	Phase     Phase  `json:"phase"`
}

// ResolvePromotion accepts or declines the pending promotion. Declining
// rotates the day. A failed attempt keeps the decision pending while the
// halved skill still qualifies; otherwise the day rotates.
func (s *Session) ResolvePromotion(accept bool) (PromotionOutcome, error) {
	if s.Phase != PhasePromotion {
		return PromotionOutcome{}, ErrNoPendingPromotion
	}

	if !accept {
		s.rotateDay()
		return PromotionOutcome{Message: "Promotion postponed.", Phase: s.Phase}, nil
	}

	res := s.Player.AttemptPromotion(s.src, s.Balance)
	if res.Success {
		out := PromotionOutcome{
			Attempted: true,
			Success:   true,
			TierName:  res.NewTier.String(),
			Message:   fmt.Sprintf("Promoted to %s!", res.NewTier),
		}
		s.log.Info().Str("tier", out.TierName).Msg("promotion succeeded")
		s.rotateDay()
		out.Phase = s.Phase
		return out, nil
	}

	out := PromotionOutcome{
		Attempted: true,
		LostSkill: res.LostSkill,
		Message:   fmt.Sprintf("The promotion board is not impressed. You lost %d skill.", res.LostSkill),
	}
	s.log.Info().Int("lost", res.LostSkill).Msg("promotion failed")
	if !s.Player.CanPromote(s.Balance) {
		s.rotateDay()
	}
	out.Phase = s.Phase
	return out, nil
}

// rotateDay is the single point where "today" rolls over: counters advance,
// choice guards clear, fresh content is drawn and reshuffled, and the NPC
// subset resets.
func (s *Session) rotateDay() {
	s.Day++
	s.Player.DaysPlayed++
	s.DailyChosen = false
	s.WeeklyChosen = false

	if s.Day%s.Balance.WeekLength == 0 {
		s.Week++
		w := s.cat.DrawWeekly(s.src)
		s.WeeklyEvent = &w
	} else {
		s.WeeklyEvent = nil
	}

	s.Today = s.cat.DrawDaily(s.src)
	s.TodayNPCs = s.cat.DailyNPCs(s.src, s.Balance.MaxNPCsPerDay)
	s.ActiveNPC = nil
	s.Phase = PhaseEvent

	s.log.Debug().Int("day", s.Day).Int("week", s.Week).Str("event", s.Today.Name).Msg("day rotated")
}

// Elapsed is the session duration so far.
func (s *Session) Elapsed() time.Duration {
	return s.clock.Now().Sub(s.startedAt)
}

// FormatElapsed renders the session duration as H:MM:SS.
func (s *Session) FormatElapsed() string {
	secs := int(s.Elapsed().Seconds())
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

// Snapshot is the read model served to the presentation layer.
type Snapshot struct {
	Name       string `json:"name"`
	TierName   string `json:"tier"`
	TierLevel  uint   `json:"tier_level"`
	Experience uint   `json:"experience"`
	Skill      int    `json:"skill"`
	Stress     int    `json:"stress"`
	Day        int    `json:"day"`
	Week       int    `json:"week"`
	DaysPlayed uint   `json:"days_played"`
	Alive      bool   `json:"alive"`
	Phase      Phase  `json:"phase"`
	Elapsed    string `json:"elapsed"`
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Name:       s.Player.Name,
		TierName:   s.Player.Tier().String(),
		TierLevel:  s.Player.TierLevel,
		Experience: s.Player.Experience,
		Skill:      s.Player.Skill,
		Stress:     s.Player.Stress,
		Day:        s.Day,
		Week:       s.Week,
		DaysPlayed: s.Player.DaysPlayed,
		Alive:      s.Player.Alive,
		Phase:      s.Phase,
		Elapsed:    s.FormatElapsed(),
	}
}

// HistoryEntries returns the bounded log, oldest first.
func (s *Session) HistoryEntries() []string {
	out := make([]string, len(s.Player.History))
	copy(out, s.Player.History)
	return out
}
