package gemini

// BuildConfig exposes the request-to-config translation for tests.
var BuildConfig = buildConfig
