// Package pipeline runs the /image flow: recognize or enroll the face, look up
// its profile, compose the order sentence and synthesize it.
package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/kozaktomas/barface/internal/config"
	"github.com/kozaktomas/barface/internal/constants"
	"github.com/kozaktomas/barface/internal/database"
	"github.com/kozaktomas/barface/internal/generator"
	"github.com/kozaktomas/barface/internal/recognition"
	"github.com/kozaktomas/barface/internal/sentence"
	"github.com/kozaktomas/barface/internal/speech"
	"github.com/sirupsen/logrus"
)

// ErrEmptyImage is returned when the request carries no image bytes.
var ErrEmptyImage = errors.New("no image given")

// ErrNoFaceRecords is returned when enrollment produced no face.
var ErrNoFaceRecords = errors.New("enrollment returned no face records")

// Step names, also used as the "step" log field.
const (
	StepSearch     = "search"
	StepResolve    = "resolve"
	StepGetProfile = "get_profile"
	StepCompose    = "compose"
	StepSynthesize = "synthesize"
)

// StepError wraps the error of the step that aborted the pipeline.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return e.Step + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// State is the per-request data produced by the steps so far.
type State struct {
	Image    []byte
	Matches  []recognition.FaceMatch
	FaceID   string
	Enrolled bool
	Profile  *database.Profile
	Sentence string
	Audio    *speech.Audio
}

// Options are the fixed settings of an orchestrator.
type Options struct {
	CollectionID string
	Speech       config.SpeechConfig
}

// Orchestrator runs the image pipeline. It holds no per-request state and is
// safe for concurrent use.
type Orchestrator struct {
	recognizer recognition.Recognizer
	profiles   database.ProfileWriter
	synth      speech.Synthesizer
	gen        *generator.Generator
	opts       Options
	log        logrus.FieldLogger
}

// New creates an orchestrator.
func New(
	recognizer recognition.Recognizer,
	profiles database.ProfileWriter,
	synth speech.Synthesizer,
	gen *generator.Generator,
	opts Options,
	log logrus.FieldLogger,
) *Orchestrator {
	return &Orchestrator{
		recognizer: recognizer,
		profiles:   profiles,
		synth:      synth,
		gen:        gen,
		opts:       opts,
		log:        log.WithField("component", "pipeline"),
	}
}

type step struct {
	name string
	run  func(ctx context.Context, s *State) error
}

// Run processes one image and returns the spoken order sentence.
// The first failing step aborts the chain with a *StepError.
func (o *Orchestrator) Run(ctx context.Context, image []byte) (*speech.Audio, error) {
	state, err := o.RunState(ctx, image)
	if err != nil {
		return nil, err
	}
	return state.Audio, nil
}

// RunState is Run returning the full pipeline state.
func (o *Orchestrator) RunState(ctx context.Context, image []byte) (*State, error) {
	state, err := o.Identify(ctx, image)
	if err != nil {
		return state, err
	}
	if err := o.runSteps(ctx, state, []step{
		{StepCompose, o.compose},
		{StepSynthesize, o.synthesize},
	}); err != nil {
		return state, err
	}

	o.log.WithFields(logrus.Fields{
		"face_id":  state.FaceID,
		"enrolled": state.Enrolled,
	}).Info("order sentence spoken")
	return state, nil
}

// Identify recognizes the face in image, enrolling it with a generated
// profile when it is unknown, and loads its profile.
func (o *Orchestrator) Identify(ctx context.Context, image []byte) (*State, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}

	state := &State{Image: image}
	err := o.runSteps(ctx, state, []step{
		{StepSearch, o.search},
		{StepResolve, o.resolve},
		{StepGetProfile, o.getProfile},
	})
	return state, err
}

func (o *Orchestrator) runSteps(ctx context.Context, state *State, steps []step) error {
	for _, st := range steps {
		if err := st.run(ctx, state); err != nil {
			o.log.WithFields(logrus.Fields{
				"step":    st.name,
				"face_id": state.FaceID,
			}).WithError(err).Error("pipeline step failed")
			return &StepError{Step: st.name, Err: err}
		}
	}
	return nil
}

func (o *Orchestrator) search(ctx context.Context, s *State) error {
	matches, err := o.recognizer.SearchFacesByImage(ctx, o.opts.CollectionID, s.Image, constants.FacesToRecognize)
	if err != nil {
		return err
	}
	s.Matches = matches
	return nil
}

// resolve picks the matched face or enrolls a new one with a generated profile.
func (o *Orchestrator) resolve(ctx context.Context, s *State) error {
	if len(s.Matches) > 0 {
		s.FaceID = s.Matches[0].Face.FaceID
		return nil
	}

	records, err := o.recognizer.IndexFaces(ctx, o.opts.CollectionID, s.Image)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return ErrNoFaceRecords
	}

	record := records[0]
	s.FaceID = record.Face.FaceID
	s.Enrolled = true

	profile := &database.Profile{
		FaceID:     record.Face.FaceID,
		Name:       o.gen.Name(),
		FaceDetail: record.FaceDetail,
		FavDrinks:  o.gen.Drinks(),
	}
	if err := o.profiles.PutProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to store profile: %w", err)
	}
	o.log.WithFields(logrus.Fields{
		"face_id": profile.FaceID,
		"name":    profile.Name,
		"drinks":  len(profile.FavDrinks),
	}).Info("enrolled new face")
	return nil
}

func (o *Orchestrator) getProfile(ctx context.Context, s *State) error {
	profile, err := o.profiles.GetProfile(ctx, s.FaceID)
	if err != nil {
		return err
	}
	s.Profile = profile
	return nil
}

func (o *Orchestrator) compose(_ context.Context, s *State) error {
	text, err := sentence.Compose(s.Profile)
	if err != nil {
		return err
	}
	s.Sentence = text
	return nil
}

func (o *Orchestrator) synthesize(ctx context.Context, s *State) error {
	audio, err := o.synth.Synthesize(ctx, speech.DefaultParams(o.opts.Speech, s.Sentence))
	if err != nil {
		return err
	}
	s.Audio = audio
	return nil
}

// DecodeDataURL extracts the image bytes from a "data:image/...;base64," URL.
// A bare base64 string is accepted as well.
func DecodeDataURL(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		meta, payload, ok := strings.Cut(s, ",")
		if !ok || !strings.HasSuffix(meta, ";base64") {
			return nil, errors.New("image is not a base64 data URL")
		}
		s = payload
	}
	if s == "" {
		return nil, ErrEmptyImage
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	return data, nil
}
