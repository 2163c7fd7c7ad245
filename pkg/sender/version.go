package sender

// Version of the sender package, sent in the User-Agent header.
const Version = "2.0.0"

// UserAgent identifies requests made by this package.
const UserAgent = "dexcell-sender/" + Version
