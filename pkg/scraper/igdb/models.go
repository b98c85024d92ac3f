// Gamedex Core
// Copyright (c) 2026 The Gamedex Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Gamedex Core.
//
// Gamedex Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gamedex Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gamedex Core.  If not, see <http://www.gnu.org/licenses/>.

package igdb

import "time"

// Game is a game record from the IGDB v4 games endpoint, with the expanded
// fields requested by gameFields.
type Game struct {
	Cover             *Image            `json:"cover"`
	Franchise         *Named            `json:"franchise"`
	Name              string            `json:"name"`
	Slug              string            `json:"slug"`
	Summary           string            `json:"summary"`
	Franchises        []Named           `json:"franchises"`
	Collections       []Named           `json:"collections"`
	AlternativeNames  []Named           `json:"alternative_names"`
	Platforms         []Named           `json:"platforms"`
	InvolvedCompanies []InvolvedCompany `json:"involved_companies"`
	ReleaseDates      []ReleaseDate     `json:"release_dates"`
	ID                int64             `json:"id"`
	ParentGame        int64             `json:"parent_game"`
	VersionParent     int64             `json:"version_parent"`
	FirstReleaseDate  int64             `json:"first_release_date"`
	TotalRating       float64           `json:"total_rating"`
	TotalRatingCount  int               `json:"total_rating_count"`
	Rating            float64           `json:"rating"`
	RatingCount       int               `json:"rating_count"`
	Follows           int               `json:"follows"`
	Hypes             int               `json:"hypes"`
	Category          *int              `json:"category"`
	Status            *int              `json:"status"`
}

// Named is any expanded IGDB entity where only the name is requested.
type Named struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// Image is an expanded cover or screenshot.
type Image struct {
	URL     string `json:"url"`
	ImageID string `json:"image_id"`
	ID      int64  `json:"id"`
}

// InvolvedCompany links a company to a game with its role.
type InvolvedCompany struct {
	Company   Named `json:"company"`
	Developer bool  `json:"developer"`
	Publisher bool  `json:"publisher"`
}

// ReleaseDate is one platform release. Date is a unix timestamp and may be
// missing for unannounced releases.
type ReleaseDate struct {
	Date int64 `json:"date"`
	ID   int64 `json:"id"`
}

// apiError is the error body returned by IGDB.
type apiError struct {
	Title  string `json:"title"`
	Cause  string `json:"cause"`
	Status int    `json:"status"`
}

// TokenResponse represents the OAuth2 token response from Twitch
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// TokenInfo stores token information for IGDB authentication
type TokenInfo struct {
	ExpiresAt   time.Time
	AccessToken string
	TokenType   string
}
