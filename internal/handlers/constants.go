package handlers

// Client-facing messages shared by several handlers.
const (
	msgInvalidBody       = "Invalid request body"
	msgInvalidSessionID  = "Invalid session ID"
	msgInvalidStudentID  = "Invalid student ID"
	msgInvalidActivityID = "Invalid session or activity ID"
	msgInvalidPaging     = "limit and offset must be integers"
)
