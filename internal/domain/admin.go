package domain

// AdminCapability is the deployment's single, non-forgeable authorization
// token. Off-chain, "possession of the capability" becomes "presented a
// token that verifies against the operator's signing secret" — see
// service.AdminService. Holder is informational only; it is never compared,
// only its presence (a successfully verified Capability value) matters.
type AdminCapability struct {
	Holder string
}
