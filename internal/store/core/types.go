package core

import "time"

// Account es el documento raíz: un usuario final por binding de provider.
// LocalID es función pura de (provider, providerUserID) — ver identity.LocalID.
type Account struct {
	LocalID        string
	Provider       string
	ProviderUserID string

	// Sticky: se fijan al crear la cuenta y no se pisan en logins posteriores.
	Email       string
	DisplayName string
	PhotoURL    string

	CreatedAt   time.Time
	LastLoginAt time.Time
}

// StatMin y StatMax acotan cada stat de la mascota.
const (
	StatMin     = 0
	StatMax     = 100
	StatDefault = 50
)

// PetStats son los tres stats acotados de la mascota de un perfil infantil.
// Invariante: siempre dentro de [StatMin, StatMax].
type PetStats struct {
	Happiness int `json:"happiness"`
	Energy    int `json:"energy"`
	Knowledge int `json:"knowledge"`
}

// DefaultPetStats retorna los stats iniciales (50/50/50).
func DefaultPetStats() PetStats {
	return PetStats{Happiness: StatDefault, Energy: StatDefault, Knowledge: StatDefault}
}

// Normalize fuerza cada stat dentro de [StatMin, StatMax].
func (s PetStats) Normalize() PetStats {
	return PetStats{
		Happiness: clampStat(s.Happiness),
		Energy:    clampStat(s.Energy),
		Knowledge: clampStat(s.Knowledge),
	}
}

// Lower baja los stats por los deltas dados, con piso en StatMin.
// Nunca sube un stat: deltas negativos se ignoran.
func (s PetStats) Lower(happiness, energy, knowledge int) PetStats {
	return PetStats{
		Happiness: lowerStat(s.Happiness, happiness),
		Energy:    lowerStat(s.Energy, energy),
		Knowledge: lowerStat(s.Knowledge, knowledge),
	}
}

func clampStat(v int) int {
	if v < StatMin {
		return StatMin
	}
	if v > StatMax {
		return StatMax
	}
	return v
}

func lowerStat(v, delta int) int {
	if delta < 0 {
		delta = 0
	}
	v = clampStat(v)
	if v-delta < StatMin {
		return StatMin
	}
	return v - delta
}

// ChildProfile pertenece a exactamente una Account.
type ChildProfile struct {
	AccountID string
	ChildID   string
	PetStats  PetStats
}

// Achievement es inmutable una vez creado; solo lo lee el fan-out.
type Achievement struct {
	AccountID string
	ID        string
	Title     string
	Unlocked  bool
	CreatedAt time.Time
}

// Notification se crea únicamente como derivado de un Achievement desbloqueado.
type Notification struct {
	AccountID string
	ID        string
	Type      string
	Title     string
	Message   string
	IsRead    bool
	CreatedAt time.Time
}

// Story es append-only desde la aplicación; sujeta a retención.
type Story struct {
	AccountID string
	ID        string
	Content   string
	CreatedAt time.Time
}
