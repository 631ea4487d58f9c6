package host

import (
	"fmt"
	"sync"

	"github.com/metheus/shell/internal/shared/types"
)

// Fake is an in-memory Host that records every call for assertions.
// Individual operations can be made to fail by op name via FailOn.
type Fake struct {
	mu       sync.Mutex
	surfaces map[string]*FakeSurface
	calls    []string
	failures map[string]error
}

// FakeSurface is the in-memory handle Fake hands out
type FakeSurface struct {
	fake *Fake

	ID       string
	Locator  string
	Opts     CreateOptions
	Visible  bool
	Closed   bool
	Pos      types.Point
	Dim      types.Size
	OnBottom bool
	Scripts  []string
}

// NewFake creates an empty fake host
func NewFake() *Fake {
	return &Fake{
		surfaces: make(map[string]*FakeSurface),
		failures: make(map[string]error),
	}
}

// NewFakeWithPrimary creates a fake host whose primary window sits at origin
func NewFakeWithPrimary(origin types.Point) *Fake {
	f := NewFake()
	f.surfaces[PrimaryID] = &FakeSurface{fake: f, ID: PrimaryID, Visible: true, Pos: origin}
	return f
}

// FailOn makes every subsequent call of the named op return err.
// Op names match the call log: create, show, hide, close, focus,
// setPosition, setSize, setAlwaysOnBottom, setVisibleOnAllWorkspaces,
// position, evaluateScript.
func (f *Fake) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = err
}

// Calls returns a copy of the recorded call log
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// MovePrimary repositions the primary window
func (f *Fake) MovePrimary(p types.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if primary, ok := f.surfaces[PrimaryID]; ok {
		primary.Pos = p
	}
}

// RemovePrimary drops the primary window, simulating an unavailable host
func (f *Fake) RemovePrimary() {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.surfaces, PrimaryID)
}

// Surface returns the fake surface for an id, for state assertions
func (f *Fake) Surface(id string) (*FakeSurface, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.surfaces[id]
	return s, ok
}

func (f *Fake) record(op string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry := op
	for _, a := range args {
		entry += fmt.Sprintf(":%v", a)
	}
	f.calls = append(f.calls, entry)
	return f.failures[op]
}

// Create implements Host
func (f *Fake) Create(id, locator string, opts CreateOptions) (Handle, error) {
	if err := f.record("create", id, locator); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.surfaces[id]; exists {
		return nil, fmt.Errorf("surface %s already exists", id)
	}
	s := &FakeSurface{fake: f, ID: id, Locator: locator, Opts: opts, Visible: opts.Visible}
	f.surfaces[id] = s
	return s, nil
}

// Lookup implements Host
func (f *Fake) Lookup(id string) (Handle, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.surfaces[id]
	if !ok || s.Closed {
		return nil, false
	}
	return s, true
}

func (s *FakeSurface) Show() error {
	if err := s.fake.record("show", s.ID); err != nil {
		return err
	}
	s.fake.mu.Lock()
	defer s.fake.mu.Unlock()
	s.Visible = true
	return nil
}

func (s *FakeSurface) Hide() error {
	if err := s.fake.record("hide", s.ID); err != nil {
		return err
	}
	s.fake.mu.Lock()
	defer s.fake.mu.Unlock()
	s.Visible = false
	return nil
}

func (s *FakeSurface) Close() error {
	if err := s.fake.record("close", s.ID); err != nil {
		return err
	}
	s.fake.mu.Lock()
	defer s.fake.mu.Unlock()
	s.Closed = true
	delete(s.fake.surfaces, s.ID)
	return nil
}

func (s *FakeSurface) Focus() error {
	return s.fake.record("focus", s.ID)
}

func (s *FakeSurface) SetPosition(p types.Point) error {
	if err := s.fake.record("setPosition", s.ID, p.X, p.Y); err != nil {
		return err
	}
	s.fake.mu.Lock()
	defer s.fake.mu.Unlock()
	s.Pos = p
	return nil
}

func (s *FakeSurface) SetSize(dim types.Size) error {
	if err := s.fake.record("setSize", s.ID, dim.Width, dim.Height); err != nil {
		return err
	}
	s.fake.mu.Lock()
	defer s.fake.mu.Unlock()
	s.Dim = dim
	return nil
}

func (s *FakeSurface) SetAlwaysOnBottom(onBottom bool) error {
	if err := s.fake.record("setAlwaysOnBottom", s.ID, onBottom); err != nil {
		return err
	}
	s.fake.mu.Lock()
	defer s.fake.mu.Unlock()
	s.OnBottom = onBottom
	return nil
}

func (s *FakeSurface) SetVisibleOnAllWorkspaces(visible bool) error {
	return s.fake.record("setVisibleOnAllWorkspaces", s.ID, visible)
}

func (s *FakeSurface) Position() (types.Point, error) {
	if err := s.fake.record("position", s.ID); err != nil {
		return types.Point{}, err
	}
	s.fake.mu.Lock()
	defer s.fake.mu.Unlock()
	return s.Pos, nil
}

func (s *FakeSurface) EvaluateScript(source string) error {
	if err := s.fake.record("evaluateScript", s.ID); err != nil {
		return err
	}
	s.fake.mu.Lock()
	defer s.fake.mu.Unlock()
	s.Scripts = append(s.Scripts, source)
	return nil
}
