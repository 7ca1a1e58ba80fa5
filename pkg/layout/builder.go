package layout

import "github.com/matzehuels/slidegrid/pkg/grid"

// SlideHandle identifies a slide opened with [Builder.BeginSlide].
// Handles are 1-based slide indices.
type SlideHandle int

// Origin ties a drawing operation to the grid span and payload element it
// came from.
type Origin struct {
	Span grid.Span
	Item string
}

// Builder receives placement decisions from the [Orchestrator]. The
// orchestrator calls BeginSlide once per slide, then any number of Place
// calls for that slide, and EndGeneration once at the end.
type Builder interface {
	BeginSlide(c grid.Canvas) SlideHandle
	PlaceImage(h SlideHandle, rect grid.Rect, ref string, at Origin)
	PlaceText(h SlideHandle, rect grid.Rect, runs []TextRun, at Origin)
	PlaceShape(h SlideHandle, rect grid.Rect, style ShapeStyle, at Origin)
	EndGeneration() *Sequence
}

// Recorder is a [Builder] that records every call as an [Instruction].
// Its zero value is ready to use.
type Recorder struct {
	canvas grid.Canvas
	slides []Slide
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) BeginSlide(c grid.Canvas) SlideHandle {
	r.canvas = c
	r.slides = append(r.slides, Slide{Index: len(r.slides) + 1})
	return SlideHandle(len(r.slides))
}

func (r *Recorder) PlaceImage(h SlideHandle, rect grid.Rect, ref string, at Origin) {
	r.add(h, Instruction{Op: OpImage, Ref: ref, Rect: rect, Span: at.Span, Item: at.Item})
}

func (r *Recorder) PlaceText(h SlideHandle, rect grid.Rect, runs []TextRun, at Origin) {
	r.add(h, Instruction{Op: OpText, Rect: rect, Runs: append([]TextRun(nil), runs...), Span: at.Span, Item: at.Item})
}

func (r *Recorder) PlaceShape(h SlideHandle, rect grid.Rect, style ShapeStyle, at Origin) {
	st := style
	r.add(h, Instruction{Op: OpShape, Rect: rect, Style: &st, Span: at.Span, Item: at.Item})
}

// EndGeneration returns the recorded sequence and resets the recorder.
func (r *Recorder) EndGeneration() *Sequence {
	seq := &Sequence{Canvas: r.canvas, Slides: r.slides}
	r.slides = nil
	return seq
}

func (r *Recorder) add(h SlideHandle, in Instruction) {
	i := int(h) - 1
	if i < 0 || i >= len(r.slides) {
		return
	}
	in.Slide = int(h)
	r.slides[i].Instructions = append(r.slides[i].Instructions, in)
}

var _ Builder = (*Recorder)(nil)
