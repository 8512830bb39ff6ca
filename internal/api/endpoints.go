package api

// PHP script paths relative to the base URL. The backend routes by file,
// not by method, so every operation has its own script.
const (
	EndpointLogin              = "userlogin.php"
	EndpointSignup             = "signup.php"
	EndpointDriverInfo         = "driverinfo.php"
	EndpointPrice              = "price.php"
	EndpointFetchCars          = "fetchcars.php"
	EndpointFetchCar           = "fetchsinglecar.php"
	EndpointFetchUserProfile   = "fetchprofile.php"
	EndpointFetchDriverProfile = "fetchdriverprofile.php"
	EndpointSubmitAvailability = "insertavailability.php"
	EndpointListAvailability   = "touchavailability.php"
	EndpointCreateBooking      = "insertbookingdetails.php"
	EndpointDriverBookings     = "fetch_booking_details.php"
	EndpointRiderBookings      = "bookindetails.php"
	EndpointAddCar             = "cars.php"
	EndpointUpdateBooking      = "update_booking_status.php"
)
