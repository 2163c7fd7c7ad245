package restapi

// Version of the restapi package, sent in the User-Agent header.
const Version = "1.0.0"

// UserAgent identifies requests made by this package.
const UserAgent = "dexcell-restapi/" + Version
