package backend

// Action names understood by the backend endpoint.
const (
	ActionLeaderboardToday   = "getLeaderboardData"
	ActionLeaderboardAllTime = "getAllTimeLeaderboardData"
	ActionPerformers         = "getPerformers"
	ActionRaterStats         = "getRaterStats"
	ActionScoutLevels        = "getScoutLevels"
	ActionSubmitRatings      = "submitRatings"
	ActionSummaryToday       = "getTodaysFeedbackSummary"
	ActionSummaryAllTime     = "getAllTimeFeedbackSummary"
	ActionVerifyToken        = "verifyToken"
	ActionVenuesForToday     = "getVenuesForToday"
	ActionFeedbackTags       = "getFeedbackTags"
	ActionTodaysRatings      = "getTodaysRatings"
)

// StatusSuccess is the envelope status of a successful call.
const StatusSuccess = "success"

// Envelope is the common part of every backend response.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
