package snowapi

// Version is reported in the User-Agent header.
const Version = "0.2.0"
