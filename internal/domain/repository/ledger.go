package repository

// LockMode nivel de bloqueo del ledger COD que toma una transacción.
// Las remesas toman LockShared (pueden correr en paralelo entre sí);
// la limpieza toma LockExclusive y espera a que terminen todas.
type LockMode int

const (
	LockNone LockMode = iota
	LockShared
	LockExclusive
)

func (m LockMode) String() string {
	switch m {
	case LockShared:
		return "shared"
	case LockExclusive:
		return "exclusive"
	default:
		return "none"
	}
}
