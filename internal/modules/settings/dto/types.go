package dto

type ToggleAutoRecordInput struct {
	Enabled *bool
}

type AutoRecordOutput struct {
	Enabled bool
}
