package voucher

// Kind classifies the result of one send call to the voucher service
type Kind int

const (
	// Accepted means the voucher service returned a success status
	Accepted Kind = iota
	// PhoneInvalid means the destination phone itself was rejected
	PhoneInvalid
	// CampaignInvalid means the campaign ID is not recognized
	CampaignInvalid
	// CampaignExpired means the campaign has expired
	CampaignExpired
	// Unknown is any other non-success response. It proves neither a
	// phone nor a campaign failure.
	Unknown
	// NetworkFailure is a transport-level failure after exhausting retries
	NetworkFailure
)

// String returns the metric label for the kind
func (k Kind) String() string {
	switch k {
	case Accepted:
		return "accepted"
	case PhoneInvalid:
		return "phone_invalid"
	case CampaignInvalid:
		return "campaign_invalid"
	case CampaignExpired:
		return "campaign_expired"
	case Unknown:
		return "unknown"
	case NetworkFailure:
		return "network_failure"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of a send call. The free-text error
// payload from the voucher service is pattern-matched exactly once, at
// the client boundary; everything downstream switches on Kind.
type Outcome struct {
	Kind    Kind
	Message string
}

// Success reports whether the voucher was accepted
func (o Outcome) Success() bool {
	return o.Kind == Accepted
}

// CampaignLevel reports whether the outcome condemns the campaign
// rather than the destination phone
func (o Outcome) CampaignLevel() bool {
	return o.Kind == CampaignInvalid || o.Kind == CampaignExpired
}
