package validator

// Validation failure reasons recorded on orders.
const (
	ReasonUnsupportedVersion   = "unsupported order version"
	ReasonInvalidOwner         = "invalid order owner"
	ReasonInvalidTokenS        = "invalid order tokenS"
	ReasonInvalidTokenB        = "invalid order tokenB"
	ReasonInvalidAmountS       = "invalid order amountS"
	ReasonInvalidAmountB       = "invalid order amountB"
	ReasonInvalidFeeToken      = "invalid feeToken"
	ReasonSecurityFeeToken     = "feeToken cannot be a security token"
	ReasonInvalidWaive         = "invalid waive percentage"
	ReasonInvalidTokenSFee     = "invalid tokenS percentage"
	ReasonInvalidTokenBFee     = "invalid tokenB percentage"
	ReasonSecurityTokenSFee    = "tokenS fee percentage on a security token"
	ReasonSecurityTokenBFee    = "tokenB fee percentage on a security token"
	ReasonInvalidWalletSplit   = "invalid wallet split percentage"
	ReasonMissingDualAuthSig   = "missing dual author signature"
	ReasonInvalidTrancheS      = "invalid trancheS"
	ReasonInvalidTrancheB      = "invalid trancheB"
	ReasonInvalidTransferDataS = "invalid transferDataS"
	ReasonTooEarly             = "order is too early to match"
	ReasonExpired              = "order is expired"
	ReasonBrokerNotRegistered  = "order broker is not registered"
	ReasonAllOrNoneNotFilled   = "allOrNone not completely filled"
	ReasonInvalidSignature     = "invalid order signature"
	ReasonInvalidDualAuthSig   = "invalid order dual auth signature"
)
