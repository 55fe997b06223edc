package identity

// LacksPermission decides whether actor may NOT operate on target for the
// given capability. It is a flat membership check: the actor's profile set
// must grant the capability, independent of whether actor and target are
// the same account. Callers deny the operation when this returns true,
// before attempting any mutation.
func LacksPermission(actor, target *Account, required Capability) bool {
	if actor == nil || target == nil {
		return true
	}
	return !actor.HasCapability(required)
}
