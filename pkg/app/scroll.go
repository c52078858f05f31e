package app

// Scroll keeps the first visible tree row within bounds.
type Scroll struct {
	Offset  int
	Total   int // rows available
	Visible int // rows that fit on screen
}

// Update records new dimensions and clamps the offset.
func (s *Scroll) Update(total, visible int) {
	s.Total = max(total, 0)
	s.Visible = max(visible, 0)
	s.clamp()
}

// By moves the offset by n rows (negative scrolls up).
func (s *Scroll) By(n int) {
	s.Offset += n
	s.clamp()
}

// Home scrolls to the top.
func (s *Scroll) Home() {
	s.Offset = 0
}

// End scrolls to the bottom.
func (s *Scroll) End() {
	s.Offset = s.maxOffset()
}

// Page is the distance of a page jump.
func (s *Scroll) Page() int {
	return max(s.Visible, 1)
}

func (s *Scroll) maxOffset() int {
	return max(s.Total-s.Visible, 0)
}

func (s *Scroll) clamp() {
	s.Offset = min(max(s.Offset, 0), s.maxOffset())
}
