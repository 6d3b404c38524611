package domain

// KeyPrefix namespaces every key this service writes to the database.
const KeyPrefix = "newsdex:"

// DefaultVectorDimensions applies when the vectorizer config does not pin one.
const DefaultVectorDimensions = 1536
