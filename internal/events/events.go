// Package events modela los triggers reactivos del store como una cola
// in-process: los writes de documentos publican eventos y handlers de
// propósito único los consumen. Esto separa "cuándo corre" de "qué hace"
// y deja a los handlers testeables sin store real.
package events

import "github.com/dropDatabas3/fabula/internal/store/core"

// Kind identifica el tipo de evento de creación de documento.
type Kind string

const (
	KindStoryCreated       Kind = "story.created"
	KindAchievementCreated Kind = "achievement.created"
)

// Event transporta el documento recién creado y su cuenta dueña.
type Event struct {
	Kind      Kind
	AccountID string

	// Payload según Kind; solo uno está seteado.
	Story       *core.Story
	Achievement *core.Achievement
}
