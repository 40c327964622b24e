package contracts

type SuccessResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Status string       `json:"status"`
	Error  ErrorPayload `json:"error"`
}

type CalculateBudgetRequest struct {
	WeekIndex  int     `json:"week_index"`
	TotalSales float64 `json:"total_sales"`
	OverflowIn float64 `json:"overflow_in"`
}

type AddParticipantRequest struct {
	AgentID string `json:"agent_id"`
}

type SetCampaignStatusRequest struct {
	Status string `json:"status"`
}

type AttributeSaleRequest struct {
	SaleID      string  `json:"sale_id"`
	AgentID     string  `json:"agent_id"`
	Amount      float64 `json:"amount"`
	InstalledAt string  `json:"installed_at"`
}

type AttributeSaleResponse struct {
	SaleID     string `json:"sale_id"`
	CampaignID string `json:"campaign_id"`
	Recorded   bool   `json:"recorded"`
}

type RecomputeRequest struct {
	At     string `json:"at,omitempty"`
	WeekID string `json:"week_id,omitempty"`
}

type CampaignListResponse struct {
	OwnerID   string `json:"owner_id"`
	Campaigns any    `json:"campaigns"`
}
