package action

// Fields flattens a into a string-keyed map for scripts. Every map carries
// "kind" and "actor"; coordinates are split into x/y keys.
func Fields(a Args) map[string]any {
	if a == nil {
		return nil
	}
	f := map[string]any{
		"kind":  string(a.Kind()),
		"actor": uint64(a.Actor()),
	}
	switch a := a.(type) {
	case Walk:
		f["direction"] = string(a.Direction)
	case Melee:
		f["target"] = uint64(a.Target)
	case Fire:
		f["direction"] = string(a.Direction)
		f["range"] = a.Range
	case Spawn:
		f["entity_kind"] = string(a.As)
		f["level"] = a.Position.Level
		f["x"] = a.Position.Coord.X
		f["y"] = a.Position.Coord.Y
	case ProjectileStep:
		f["direction"] = string(a.Direction)
		f["remaining"] = a.Remaining
	case ApplyDamage:
		f["amount"] = a.Amount
		f["source"] = uint64(a.Source)
	case Transform:
		f["into"] = string(a.Into)
	case LevelSwitch:
		f["level"] = a.Level
		f["x"] = a.Coord.X
		f["y"] = a.Coord.Y
	}
	return f
}
