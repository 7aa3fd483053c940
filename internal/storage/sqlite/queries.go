package sqlite

const selectArtistIDsSQL = `SELECT artist_id FROM artists WHERE artist_id LIKE ? || '%'`

const selectSongIDsSQL = `SELECT song_id FROM songs WHERE song_id LIKE ? || '%'`

const selectArtistColumns = `SELECT artist_id, name, date_of_birth, debut_date, nationality, genre FROM artists`

const selectArtistByNameSQL = selectArtistColumns + ` WHERE name = ? ORDER BY artist_id LIMIT 1`

const selectArtistByIDSQL = selectArtistColumns + ` WHERE artist_id = ?`

const insertArtistSQL = `INSERT INTO artists (artist_id, name, date_of_birth, debut_date, nationality, genre, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(artist_id) DO NOTHING`

const backfillArtistGenreSQL = `UPDATE artists
SET genre = ?, updated_at = ?
WHERE artist_id = ? AND (genre IS NULL OR trim(genre) = '' OR lower(trim(genre)) = 'unknown')`

const selectSongSQL = `SELECT song_id, artist_id, title, duration_seconds, genre, mood, tempo, release_date, streams
FROM songs
WHERE title = ? AND artist_id = ?`

const insertSongSQL = `INSERT INTO songs (song_id, artist_id, title, duration_seconds, genre, mood, tempo, release_date, streams, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const updateSongSQL = `UPDATE songs
SET duration_seconds = ?, genre = ?, mood = ?, tempo = ?, release_date = ?, streams = ?, updated_at = ?
WHERE song_id = ?`

const createRunSQL = `INSERT INTO refresh_runs (run_id, started_at, status)
VALUES (?, ?, 'in_progress')`

const completeRunSQL = `UPDATE refresh_runs
SET completed_at = ?, status = ?, tracks_fetched = ?, songs_inserted = ?, songs_updated = ?, tracks_skipped = ?, artists_created = ?, error = ?
WHERE run_id = ?`
