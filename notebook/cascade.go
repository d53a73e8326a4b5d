// server/notebook/cascade.go
package notebook

// cascade tracks what a single cascading delete removed. Notes are keyed so a
// note reached through both its folder and its parent is removed once;
// folders are keyed so a looping parent chain is caught.
type cascade struct {
	notes   map[string]struct{}
	folders map[string]struct{}
	links   int
}

func newCascade() *cascade {
	return &cascade{notes: make(map[string]struct{}), folders: make(map[string]struct{})}
}

func (c *cascade) seen(noteID string) bool {
	_, ok := c.notes[noteID]
	return ok
}

func (c *cascade) report(s *Service, key, id string) {
	s.metrics.CascadeDeleted("note", len(c.notes))
	s.metrics.CascadeDeleted("folder", len(c.folders))
	s.metrics.CascadeDeleted("share_link", c.links)
	s.log.Info().
		Str(key, id).
		Int("notes", len(c.notes)).
		Int("folders", len(c.folders)).
		Int("share_links", c.links).
		Msg("cascade delete complete")
}
