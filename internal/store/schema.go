package store

// Schema is the image index applied when a store is opened.
const Schema = `
CREATE TABLE IF NOT EXISTS images (
    hash        TEXT NOT NULL,
    ext         TEXT NOT NULL,
    path        TEXT NOT NULL,
    created_at  INTEGER NOT NULL,
    PRIMARY KEY (hash, ext)
);
CREATE INDEX IF NOT EXISTS idx_images_created ON images(created_at DESC);
`
