package castchannel

// Captured device frames backing the fake device stream: a heartbeat PONG
// and the two receiver availability verdicts for the default application id.

var cannedPongFrame = []byte{
	0x00, 0x00, 0x00, 0x54, 0x08, 0x00, 0x12, 0x0A,
	0x72, 0x65, 0x63, 0x65, 0x69, 0x76, 0x65, 0x72,
	0x2D, 0x30, 0x1A, 0x08, 0x73, 0x65, 0x6E, 0x64,
	0x65, 0x72, 0x2D, 0x30, 0x22, 0x27, 0x75, 0x72,
	0x6E, 0x3A, 0x78, 0x2D, 0x63, 0x61, 0x73, 0x74,
	0x3A, 0x63, 0x6F, 0x6D, 0x2E, 0x67, 0x6F, 0x6F,
	0x67, 0x6C, 0x65, 0x2E, 0x63, 0x61, 0x73, 0x74,
	0x2E, 0x74, 0x70, 0x2E, 0x68, 0x65, 0x61, 0x72,
	0x74, 0x62, 0x65, 0x61, 0x74, 0x28, 0x00, 0x32,
	0x0F, 0x7B, 0x22, 0x74, 0x79, 0x70, 0x65, 0x22,
	0x3A, 0x22, 0x50, 0x4F, 0x4E, 0x47, 0x22, 0x7D,
}

var cannedAppAvailableFrame = []byte{
	0x00, 0x00, 0x00, 0xA2, 0x08, 0x00, 0x12, 0x0A,
	0x72, 0x65, 0x63, 0x65, 0x69, 0x76, 0x65, 0x72,
	0x2D, 0x30, 0x1A, 0x08, 0x73, 0x65, 0x6E, 0x64,
	0x65, 0x72, 0x2D, 0x30, 0x22, 0x23, 0x75, 0x72,
	0x6E, 0x3A, 0x78, 0x2D, 0x63, 0x61, 0x73, 0x74,
	0x3A, 0x63, 0x6F, 0x6D, 0x2E, 0x67, 0x6F, 0x6F,
	0x67, 0x6C, 0x65, 0x2E, 0x63, 0x61, 0x73, 0x74,
	0x2E, 0x72, 0x65, 0x63, 0x65, 0x69, 0x76, 0x65,
	0x72, 0x28, 0x00, 0x32, 0x61, 0x7B, 0x22, 0x61,
	0x76, 0x61, 0x69, 0x6C, 0x61, 0x62, 0x69, 0x6C,
	0x69, 0x74, 0x79, 0x22, 0x3A, 0x7B, 0x22, 0x30,
	0x32, 0x38, 0x33, 0x34, 0x36, 0x34, 0x38, 0x22,
	0x3A, 0x22, 0x41, 0x50, 0x50, 0x5F, 0x41, 0x56,
	0x41, 0x49, 0x4C, 0x41, 0x42, 0x4C, 0x45, 0x22,
	0x7D, 0x2C, 0x22, 0x72, 0x65, 0x71, 0x75, 0x65,
	0x73, 0x74, 0x49, 0x64, 0x22, 0x3A, 0x31, 0x2C,
	0x22, 0x72, 0x65, 0x73, 0x70, 0x6F, 0x6E, 0x73,
	0x65, 0x54, 0x79, 0x70, 0x65, 0x22, 0x3A, 0x22,
	0x47, 0x45, 0x54, 0x5F, 0x41, 0x50, 0x50, 0x5F,
	0x41, 0x56, 0x41, 0x49, 0x4C, 0x41, 0x42, 0x49,
	0x4C, 0x49, 0x54, 0x59, 0x22, 0x7D,
}

var cannedAppUnavailableFrame = []byte{
	0x00, 0x00, 0x00, 0xA4, 0x08, 0x00, 0x12, 0x0A,
	0x72, 0x65, 0x63, 0x65, 0x69, 0x76, 0x65, 0x72,
	0x2D, 0x30, 0x1A, 0x08, 0x73, 0x65, 0x6E, 0x64,
	0x65, 0x72, 0x2D, 0x30, 0x22, 0x23, 0x75, 0x72,
	0x6E, 0x3A, 0x78, 0x2D, 0x63, 0x61, 0x73, 0x74,
	0x3A, 0x63, 0x6F, 0x6D, 0x2E, 0x67, 0x6F, 0x6F,
	0x67, 0x6C, 0x65, 0x2E, 0x63, 0x61, 0x73, 0x74,
	0x2E, 0x72, 0x65, 0x63, 0x65, 0x69, 0x76, 0x65,
	0x72, 0x28, 0x00, 0x32, 0x63, 0x7B, 0x22, 0x61,
	0x76, 0x61, 0x69, 0x6C, 0x61, 0x62, 0x69, 0x6C,
	0x69, 0x74, 0x79, 0x22, 0x3A, 0x7B, 0x22, 0x30,
	0x32, 0x38, 0x33, 0x34, 0x36, 0x34, 0x38, 0x22,
	0x3A, 0x22, 0x41, 0x50, 0x50, 0x5F, 0x55, 0x4E,
	0x41, 0x56, 0x41, 0x49, 0x4C, 0x41, 0x42, 0x4C,
	0x45, 0x22, 0x7D, 0x2C, 0x22, 0x72, 0x65, 0x71,
	0x75, 0x65, 0x73, 0x74, 0x49, 0x64, 0x22, 0x3A,
	0x31, 0x2C, 0x22, 0x72, 0x65, 0x73, 0x70, 0x6F,
	0x6E, 0x73, 0x65, 0x54, 0x79, 0x70, 0x65, 0x22,
	0x3A, 0x22, 0x47, 0x45, 0x54, 0x5F, 0x41, 0x50,
	0x50, 0x5F, 0x41, 0x56, 0x41, 0x49, 0x4C, 0x41,
	0x42, 0x49, 0x4C, 0x49, 0x54, 0x59, 0x22, 0x7D,
}
