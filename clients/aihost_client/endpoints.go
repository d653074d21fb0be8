package aihost_client

// Endpoints of the AI host service.
const (
	EndpointJudge  = "/v1/judge"
	EndpointBoards = "/v1/boards"
)
